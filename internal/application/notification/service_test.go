package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/property-listing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSubscribers struct{ mock.Mock }

func (m *mockSubscribers) Subscribed(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockProperties struct{ mock.Mock }

func (m *mockProperties) List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error) {
	args := m.Called(ctx, opts)
	if v := args.Get(0); v != nil {
		return v.([]domain.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingMailer struct {
	sent []domain.Email
	fail map[int]bool
}

func (m *recordingMailer) Send(_ context.Context, e domain.Email) error {
	n := len(m.sent)
	m.sent = append(m.sent, e)
	if m.fail[n] {
		return errors.New("smtp down")
	}
	return nil
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishListing(ctx context.Context, ev domain.ListingEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func addresses(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("s%d@example.com", i)
	}
	return out
}

func TestNotifyListing_BatchesOf50(t *testing.T) {
	subs, ml := &mockSubscribers{}, &recordingMailer{}
	subs.On("Subscribed", mock.Anything).Return(addresses(120), nil)
	svc := NewService(ServiceDeps{Subscribers: subs, Mailer: ml})

	n, err := svc.NotifyListing(context.Background(), domain.ListingEvent{RecordID: "rec1", Title: "Cabin"})
	require.NoError(t, err)
	assert.Equal(t, 120, n)
	require.Len(t, ml.sent, 3)
	assert.Len(t, ml.sent[0].Bcc, 50)
	assert.Len(t, ml.sent[1].Bcc, 50)
	assert.Len(t, ml.sent[2].Bcc, 20)
	assert.Empty(t, ml.sent[0].To)
	assert.Equal(t, "New Property Listed: Cabin", ml.sent[0].Subject)
	assert.Contains(t, ml.sent[0].HTML, "Cabin")
}

func TestNotifyListing_FailedBatchContinues(t *testing.T) {
	subs, ml := &mockSubscribers{}, &recordingMailer{fail: map[int]bool{0: true}}
	subs.On("Subscribed", mock.Anything).Return(addresses(60), nil)

	n, err := NewService(ServiceDeps{Subscribers: subs, Mailer: ml}).NotifyListing(context.Background(), domain.ListingEvent{Title: "x"})
	assert.Error(t, err)
	assert.Equal(t, 10, n)
	assert.Len(t, ml.sent, 2)
}

func TestNotifyListing_PublishesEvent(t *testing.T) {
	subs, pub := &mockSubscribers{}, &mockPublisher{}
	ev := domain.ListingEvent{RecordID: "rec1", Title: "Cabin"}
	subs.On("Subscribed", mock.Anything).Return([]string{}, nil)
	pub.On("PublishListing", mock.Anything, ev).Return(nil)

	n, err := NewService(ServiceDeps{Subscribers: subs, Mailer: &recordingMailer{}, Publisher: pub}).NotifyListing(context.Background(), ev)
	require.NoError(t, err)
	assert.Zero(t, n)
	pub.AssertExpectations(t)
}

func TestNotifyListing_NoMailerStillPublishes(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishListing", mock.Anything, mock.Anything).Return(errors.New("sns down"))

	_, err := NewService(ServiceDeps{Publisher: pub}).NotifyListing(context.Background(), domain.ListingEvent{})
	assert.ErrorContains(t, err, "sns down")
}

func TestSendDigest(t *testing.T) {
	subs, props, ml := &mockSubscribers{}, &mockProperties{}, &recordingMailer{}
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	props.On("List", mock.Anything, mock.MatchedBy(func(o domain.ListOptions) bool {
		return o.CreatedAfter.Equal(now.Add(-24 * time.Hour))
	})).Return([]domain.Record{
		{ID: "a", Fields: map[string]any{"Title": "Cabin", "Price": 250000.0}},
		{ID: "b", Fields: map[string]any{"Title": "Condo"}},
	}, nil)
	subs.On("Subscribed", mock.Anything).Return([]string{"a@x.com"}, nil)

	svc := NewService(ServiceDeps{Subscribers: subs, Properties: props, Mailer: ml}).(*service)
	svc.now = func() time.Time { return now }

	res, err := svc.SendDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DigestResult{Listings: 2, Recipients: 1}, res)
	require.Len(t, ml.sent, 1)
	assert.Equal(t, "Daily Property Digest: 2 new listings", ml.sent[0].Subject)
	assert.Contains(t, ml.sent[0].HTML, "250,000")
}

func TestSendDigest_NoListings(t *testing.T) {
	subs, props, ml := &mockSubscribers{}, &mockProperties{}, &recordingMailer{}
	props.On("List", mock.Anything, mock.Anything).Return([]domain.Record{}, nil)

	res, err := NewService(ServiceDeps{Subscribers: subs, Properties: props, Mailer: ml}).SendDigest(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res)
	assert.Empty(t, ml.sent)
	subs.AssertNotCalled(t, "Subscribed", mock.Anything)
}

func TestSendDigest_NoMailer(t *testing.T) {
	_, err := NewService(ServiceDeps{}).SendDigest(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
