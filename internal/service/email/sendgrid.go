package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridProvider delivers through the SendGrid v3 API, the production path
// for security-alert mail.
type SendGridProvider struct {
	fromEmail string
	fromName  string
	client    *sendgrid.Client
}

func NewSendGridProvider(apiKey, fromEmail, fromName string) *SendGridProvider {
	return &SendGridProvider{
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    sendgrid.NewSendClient(apiKey),
	}
}

// Send submits one message. SendGrid takes plain and HTML bodies in separate
// slots; the unused one stays empty.
func (p *SendGridProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	plain, html := body, ""
	if isHTML {
		plain, html = "", body
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(p.fromName, p.fromEmail),
		subject,
		mail.NewEmail("", to),
		plain,
		html,
	)

	response, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
