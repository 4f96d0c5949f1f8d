package email

import (
	"context"
	"fmt"

	"github.com/resendlabs/resend-go"
	"github.com/rs/zerolog/log"
)

// Message represents an email to send
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// ResendClient sends emails via the Resend API
type ResendClient struct {
	client *resend.Client
	from   string
}

// NewResendClient creates a Resend client. from is "Name <address>".
func NewResendClient(apiKey, from string) *ResendClient {
	return &ResendClient{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send sends an email via Resend
func (c *ResendClient) Send(ctx context.Context, msg *Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := c.client.Emails.Send(&resend.SendEmailRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return resp.Id, nil
}

// LogSender only logs. Used when no Resend key is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg *Message) (string, error) {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email not sent: no provider configured")
	return "", nil
}
