package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/property-listing-api/internal/application/expiration"
	"github.com/property-listing-api/internal/application/notification"
	"github.com/property-listing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) NotifyListing(ctx context.Context, ev domain.ListingEvent) (int, error) {
	args := m.Called(ctx, ev)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationSvc) SendDigest(ctx context.Context) (notification.DigestResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(notification.DigestResult), args.Error(1)
}

type mockSweepSvc struct{ mock.Mock }

func (m *mockSweepSvc) Sweep(ctx context.Context) (expiration.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(expiration.Result), args.Error(1)
}

func jobsRouter(n *mockNotificationSvc, s *mockSweepSvc) http.Handler {
	h := NewJobHandler(n, s, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/api/jobs/daily-digest", h.DailyDigest)
	r.Post("/api/jobs/expire-properties", h.ExpireProperties)
	return r
}

func TestJobs_DailyDigest(t *testing.T) {
	n := &mockNotificationSvc{}
	n.On("SendDigest", mock.Anything).Return(notification.DigestResult{Listings: 3, Recipients: 40}, nil)

	rr := do(t, jobsRouter(n, &mockSweepSvc{}), http.MethodPost, "/api/jobs/daily-digest", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.EqualValues(t, 3, body["listings"])
	assert.EqualValues(t, 40, body["recipients"])
	_, err := uuid.Parse(body["runId"].(string))
	assert.NoError(t, err)
}

func TestJobs_ExpireProperties(t *testing.T) {
	s := &mockSweepSvc{}
	s.On("Sweep", mock.Anything).Return(expiration.Result{Checked: 5, Warned: 1, Deleted: 2, Errors: []string{"rec9: boom"}}, nil)

	rr := do(t, jobsRouter(&mockNotificationSvc{}, s), http.MethodPost, "/api/jobs/expire-properties", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.EqualValues(t, 5, body["checked"])
	assert.EqualValues(t, 2, body["deleted"])
	assert.Len(t, body["errors"], 1)
}

func TestJobs_DigestMisconfigured(t *testing.T) {
	n := &mockNotificationSvc{}
	n.On("SendDigest", mock.Anything).Return(notification.DigestResult{}, domain.Misconfigured("Email service not configured"))

	rr := do(t, jobsRouter(n, &mockSweepSvc{}), http.MethodPost, "/api/jobs/daily-digest", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
