package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSender) Send(m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "body"}, nil
}

func TestEmailService_SendNotificationEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		sender := &fakeSender{status: 202}
		svc := newEmailService(sender, "noreply@iznajmi.test", "Iznajmi", "https://iznajmi.test")

		err := svc.SendNotificationEmail(ctx, "ana@example.com", "Ana", "Booking approved", "Your booking was approved.", "/bookings/7")
		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		m := sender.sent[0]
		assert.Equal(t, "Booking approved", m.Subject)
		assert.Equal(t, "noreply@iznajmi.test", m.From.Address)
		require.Len(t, m.Personalizations, 1)
		assert.Equal(t, "ana@example.com", m.Personalizations[0].To[0].Address)
		require.NotEmpty(t, m.Content)
		assert.Contains(t, m.Content[0].Value, "https://iznajmi.test/bookings/7")
	})

	t.Run("Provider rejects", func(t *testing.T) {
		sender := &fakeSender{status: 401}
		svc := newEmailService(sender, "noreply@iznajmi.test", "Iznajmi", "")

		err := svc.SendNotificationEmail(ctx, "ana@example.com", "Ana", "s", "m", "/bookings/1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("Transport error", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("connection reset")}
		svc := newEmailService(sender, "noreply@iznajmi.test", "Iznajmi", "")

		err := svc.SendReturnReminder(ctx, "ana@example.com", "Ana", "Drill", "2024-01-05")
		assert.ErrorContains(t, err, "connection reset")
	})
}
