package smtp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestNewMailer_NotConfigured(t *testing.T) {
	_, err := NewMailer(config.SMTP{Host: "smtp.example.com"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSend_BuildsMessage(t *testing.T) {
	var got *gomail.Message
	m := &mailer{from: "noreply@example.com", fromName: "Listings", send: func(msgs ...*gomail.Message) error {
		got = msgs[0]
		return nil
	}}

	err := m.Send(context.Background(), domain.Email{
		Bcc:     []string{"a@b.com", "c@d.com"},
		Subject: "New listing",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"noreply@example.com"}, got.GetHeader("To"))
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, got.GetHeader("Bcc"))
	assert.Equal(t, []string{"New listing"}, got.GetHeader("Subject"))
}

func TestSend_NoRecipients(t *testing.T) {
	m := &mailer{from: "x@y.com", send: func(...*gomail.Message) error { return nil }}
	assert.Error(t, m.Send(context.Background(), domain.Email{Subject: "s"}))
}

func TestSend_RelayError(t *testing.T) {
	m := &mailer{from: "x@y.com", send: func(...*gomail.Message) error { return errors.New("535 auth failed") }}
	err := m.Send(context.Background(), domain.Email{To: []string{"a@b.com"}})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestSend_ContextDeadline(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	m := &mailer{from: "x@y.com", send: func(...*gomail.Message) error { <-block; return nil }}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Send(ctx, domain.Email{To: []string{"a@b.com"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
