package jobs

import (
	"context"
	"strconv"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/logger"
	"iznajmi-backend/internal/service"
)

// Sink is one delivery channel for outbox notifications. A sink that has nothing to deliver to
// for a user (no email address, no device) returns nil.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, user *domain.User, n *domain.Notification) error
}

func buildSinks(services *Services) []Sink {
	var sinks []Sink
	if services.Email != nil {
		sinks = append(sinks, emailSink{email: services.Email})
	}
	if services.Push != nil {
		sinks = append(sinks, pushSink{push: services.Push})
	}
	if len(sinks) == 0 {
		sinks = append(sinks, logSink{})
	}
	return sinks
}

type emailSink struct {
	email service.EmailService
}

func (emailSink) Name() string { return "email" }

func (s emailSink) Deliver(ctx context.Context, user *domain.User, n *domain.Notification) error {
	if user.Email == "" {
		return nil
	}
	return s.email.SendNotificationEmail(ctx, user.Email, user.Name, n.Title, n.Message, n.Link)
}

type pushSink struct {
	push service.PushService
}

func (pushSink) Name() string { return "push" }

func (s pushSink) Deliver(ctx context.Context, user *domain.User, n *domain.Notification) error {
	if user.PushToken == "" {
		return nil
	}
	data := map[string]string{
		"notification_id": strconv.Itoa(int(n.ID)),
		"type":            string(n.Type),
		"link":            n.Link,
	}
	for k, v := range n.Attributes {
		data[k] = v
	}
	return s.push.SendPush(ctx, user.PushToken, n.Title, n.Message, data)
}

// logSink stands in for real channels in development.
type logSink struct{}

func (logSink) Name() string { return "log" }

func (logSink) Deliver(ctx context.Context, user *domain.User, n *domain.Notification) error {
	logger.InfoContext(ctx, "Notification delivered to log",
		"notification_id", n.ID,
		"user_id", user.ID,
		"type", n.Type,
		"title", n.Title,
	)
	return nil
}
