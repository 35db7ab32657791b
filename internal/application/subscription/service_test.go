package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/property-listing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecords struct{ mock.Mock }

func (m *mockRecords) List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error) {
	args := m.Called(ctx, opts)
	if v := args.Get(0); v != nil {
		return v.([]domain.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecords) Create(ctx context.Context, fields map[string]any) (*domain.Record, error) {
	args := m.Called(ctx, fields)
	if v := args.Get(0); v != nil {
		return v.(*domain.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCaptcha struct{ mock.Mock }

func (m *mockCaptcha) Verify(ctx context.Context, response, remoteIP string) (bool, error) {
	args := m.Called(ctx, response, remoteIP)
	return args.Bool(0), args.Error(1)
}

var req = domain.SubscribeRequest{Email: " New@Example.com ", CaptchaToken: "cpt"}

func TestSubscribe_New(t *testing.T) {
	recs, cpt := &mockRecords{}, &mockCaptcha{}
	cpt.On("Verify", mock.Anything, "cpt", "1.2.3.4").Return(true, nil)
	recs.On("List", mock.Anything, mock.MatchedBy(func(o domain.ListOptions) bool {
		return o.Equal[domain.FieldSubscriberEmail] == "new@example.com"
	})).Return([]domain.Record{}, nil)
	recs.On("Create", mock.Anything, map[string]any{"Email": "new@example.com", "Subscribed": true}).
		Return(&domain.Record{ID: "recS"}, nil)

	msg, created, err := NewService(recs, cpt, nil).Subscribe(context.Background(), req, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, MsgSubscribed, msg)
	recs.AssertExpectations(t)
}

func TestSubscribe_Existing(t *testing.T) {
	recs, cpt := &mockRecords{}, &mockCaptcha{}
	cpt.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	recs.On("List", mock.Anything, mock.Anything).Return([]domain.Record{{ID: "recS"}}, nil)

	msg, created, err := NewService(recs, cpt, nil).Subscribe(context.Background(), req, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, MsgAlreadySubscribed, msg)
	recs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubscribe_CaptchaRejected(t *testing.T) {
	recs, cpt := &mockRecords{}, &mockCaptcha{}
	cpt.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	_, _, err := NewService(recs, cpt, nil).Subscribe(context.Background(), req, "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	recs.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSubscribe_CaptchaUpstreamError(t *testing.T) {
	cpt := &mockCaptcha{}
	cpt.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(false, domain.Upstream("captcha down", errors.New("boom")))

	_, _, err := NewService(&mockRecords{}, cpt, nil).Subscribe(context.Background(), req, "")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestSubscribe_NoCaptcha(t *testing.T) {
	_, _, err := NewService(&mockRecords{}, nil, nil).Subscribe(context.Background(), req, "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSubscribed_Dedupes(t *testing.T) {
	recs := &mockRecords{}
	recs.On("List", mock.Anything, mock.Anything).Return([]domain.Record{
		{Fields: map[string]any{"Email": "A@x.com"}},
		{Fields: map[string]any{"Email": "a@x.com"}},
		{Fields: map[string]any{"Email": ""}},
		{Fields: map[string]any{"Email": "b@x.com"}},
	}, nil)

	got, err := NewService(recs, nil, nil).Subscribed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got)
}
