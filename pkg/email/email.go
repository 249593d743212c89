package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sf7293/widget-manager/internal/domain"
)

// Message is a rendered plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Transport hands a rendered message to a delivery backend.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// Mailer renders a template and delivers the result through a Transport.
type Mailer struct {
	from      string
	transport Transport
}

func NewMailer(from string, transport Transport) *Mailer {
	return &Mailer{
		from:      from,
		transport: transport,
	}
}

func (m *Mailer) Send(ctx context.Context, to string, template domain.MailTemplate, data any) error {
	subject, body, err := Render(template, data)
	if err != nil {
		return err
	}

	err = m.transport.Deliver(ctx, Message{
		From:    m.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("deliver %s to %s: %w", template, to, err)
	}

	slog.InfoContext(ctx, "Email has been delivered", "to", to, "template", template)
	return nil
}

// LogTransport only logs messages. It is meant for local runs without a mail backend.
type LogTransport struct{}

func (LogTransport) Deliver(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "send_email parameters:", "from", msg.From, "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

// NewTransport picks the delivery backend named by driver: log, smtp or ses.
func NewTransport(ctx context.Context, driver string, smtpCfg SMTPConfig, awsRegion string) (Transport, error) {
	switch driver {
	case "", "log":
		return LogTransport{}, nil
	case "smtp":
		return NewSMTPTransport(smtpCfg), nil
	case "ses":
		return NewSESTransport(ctx, awsRegion)
	default:
		return nil, fmt.Errorf("unknown mail driver %q", driver)
	}
}
