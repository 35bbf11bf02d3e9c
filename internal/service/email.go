package service

import (
	"context"
	"fmt"
	"html"

	"iznajmi-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender is the part of the SendGrid client the service uses.
type mailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client    mailSender
	fromEmail string
	fromName  string
	baseURL   string
}

// NewEmailService sends through SendGrid. baseURL prefixes the deep links in notification mails.
func NewEmailService(apiKey, fromEmail, fromName, baseURL string) EmailService {
	return newEmailService(sendgrid.NewSendClient(apiKey), fromEmail, fromName, baseURL)
}

func newEmailService(client mailSender, fromEmail, fromName, baseURL string) *emailService {
	return &emailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}
}

func (s *emailService) send(ctx context.Context, to, toName, subject, plainText, htmlContent string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)
	response, err := s.client.Send(message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *emailService) SendNotificationEmail(ctx context.Context, email, name, subject, message, link string) error {
	url := s.baseURL + link
	plainText := fmt.Sprintf("Hello %s,\n\n%s\n\nOpen the booking: %s\n\nThe Iznajmi Team", name, message, url)
	htmlContent := fmt.Sprintf(`<p>Hello %s,</p><p>%s</p><p><a href="%s">Open the booking</a></p><p>The Iznajmi Team</p>`,
		html.EscapeString(name), html.EscapeString(message), html.EscapeString(url))
	return s.send(ctx, email, name, subject, plainText, htmlContent)
}

func (s *emailService) SendReturnReminder(ctx context.Context, renterEmail, renterName, itemTitle, endDate string) error {
	subject := fmt.Sprintf("Reminder: %s is due back tomorrow", itemTitle)
	plainText := fmt.Sprintf(`Dear %s,

This is a reminder that your rental of "%s" ends on %s.

Please arrange the return with the owner.

Thank you,
The Iznajmi Team`, renterName, itemTitle, endDate)
	htmlContent := fmt.Sprintf(`<p>Dear %s,</p><p>This is a reminder that your rental of <strong>%s</strong> ends on %s.</p><p>Please arrange the return with the owner.</p>`,
		html.EscapeString(renterName), html.EscapeString(itemTitle), endDate)
	return s.send(ctx, renterEmail, renterName, subject, plainText, htmlContent)
}
