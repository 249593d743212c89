package mocks

import (
	"context"
	"sync"

	"github.com/sf7293/widget-manager/internal/domain"
)

type SentMail struct {
	To       string
	Template domain.MailTemplate
	Data     any
}

// Mailer is a domain.Mailer recording every send.
type Mailer struct {
	mu   sync.Mutex
	Sent []SentMail

	// Errs are returned by successive Send calls before the mailer starts succeeding.
	Errs []error
	// OnSend runs after a successful send, outside the lock.
	OnSend func(to string)
}

func (m *Mailer) Send(ctx context.Context, to string, template domain.MailTemplate, data any) error {
	m.mu.Lock()
	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		if err != nil {
			m.mu.Unlock()
			return err
		}
	}
	m.Sent = append(m.Sent, SentMail{To: to, Template: template, Data: data})
	m.mu.Unlock()

	if m.OnSend != nil {
		m.OnSend(to)
	}

	return nil
}

func (m *Mailer) SentMails() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.Sent...)
}
