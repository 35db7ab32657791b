package smtp

import (
	"context"
	"errors"
	"fmt"

	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/domain"
	"gopkg.in/gomail.v2"
)

// Mailer delivers HTML email.
type Mailer interface {
	Send(ctx context.Context, email domain.Email) error
}

type mailer struct {
	from     string
	fromName string
	send     func(m ...*gomail.Message) error
}

// NewMailer returns an SMTP mailer, or a configuration error when the relay
// credentials are absent.
func NewMailer(cfg config.SMTP) (Mailer, error) {
	if !cfg.Configured() {
		return nil, domain.Misconfigured("email delivery is not configured")
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &mailer{from: from, fromName: cfg.FromName, send: d.DialAndSend}, nil
}

func (m *mailer) message(email domain.Email) (*gomail.Message, error) {
	if len(email.To) == 0 && len(email.Bcc) == 0 {
		return nil, errors.New("email has no recipients")
	}
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	if len(email.To) > 0 {
		msg.SetHeader("To", email.To...)
	} else {
		// BCC-only sends go to ourselves so no subscriber sees another's address.
		msg.SetHeader("To", m.from)
	}
	if len(email.Bcc) > 0 {
		msg.SetHeader("Bcc", email.Bcc...)
	}
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)
	return msg, nil
}

// Send delivers email, giving up when ctx is done. The dial itself is not
// cancellable, so a timed-out send may still complete in the background.
func (m *mailer) Send(ctx context.Context, email domain.Email) error {
	msg, err := m.message(email)
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- m.send(msg) }()
	select {
	case err := <-done:
		if err != nil {
			return domain.Upstream("email delivery failed", fmt.Errorf("smtp send: %w", err))
		}
		return nil
	case <-ctx.Done():
		return domain.Upstream("email delivery failed", ctx.Err())
	}
}
