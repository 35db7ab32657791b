package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/property-listing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- mock ---

type mockPropertySvc struct{ mock.Mock }

func (m *mockPropertySvc) List(ctx context.Context) ([]domain.Record, error) {
	args := m.Called(ctx)
	if v, _ := args.Get(0).([]domain.Record); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertySvc) Get(ctx context.Context, recordID string) (*domain.Record, error) {
	args := m.Called(ctx, recordID)
	if v, _ := args.Get(0).(*domain.Record); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertySvc) Create(ctx context.Context, fields map[string]any) (*domain.Record, error) {
	args := m.Called(ctx, fields)
	if v, _ := args.Get(0).(*domain.Record); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertySvc) Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error) {
	args := m.Called(ctx, recordID, fields)
	if v, _ := args.Get(0).(*domain.Record); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertySvc) UpdateStatus(ctx context.Context, recordID, status string) (*domain.Record, error) {
	args := m.Called(ctx, recordID, status)
	if v, _ := args.Get(0).(*domain.Record); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertySvc) Delete(ctx context.Context, recordID string) error {
	return m.Called(ctx, recordID).Error(0)
}

func (m *mockPropertySvc) DeleteVerified(ctx context.Context, req domain.RedeemRequest, clientIP string) error {
	return m.Called(ctx, req, clientIP).Error(0)
}

func (m *mockPropertySvc) ContactEmail(ctx context.Context, req domain.RedeemRequest, clientIP string) (string, error) {
	args := m.Called(ctx, req, clientIP)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func propertyRouter(svc *mockPropertySvc) http.Handler {
	h := NewPropertyHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/api/properties", h.List)
	r.Post("/api/properties", h.Create)
	r.Get("/api/properties/{id}", h.Get)
	r.Put("/api/properties/{id}", h.Update)
	r.Post("/api/properties/{id}/status", h.UpdateStatus)
	r.Post("/api/properties/{id}/delete", h.DeleteVerified)
	r.Get("/api/properties/{id}/contact-email", h.ContactEmail)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

// --- tests ---

func TestPropertyList(t *testing.T) {
	svc := &mockPropertySvc{}
	svc.On("List", mock.Anything).Return([]domain.Record{{ID: "a"}, {ID: "b"}}, nil)

	rr := do(t, propertyRouter(svc), http.MethodGet, "/api/properties", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["count"])
}

func TestPropertyGet_NotFound(t *testing.T) {
	svc := &mockPropertySvc{}
	svc.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	rr := do(t, propertyRouter(svc), http.MethodGet, "/api/properties/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, false, decodeBody(t, rr)["success"])
}

func TestPropertyCreate(t *testing.T) {
	svc := &mockPropertySvc{}
	svc.On("Create", mock.Anything, mock.MatchedBy(func(f map[string]any) bool {
		return f["Title"] == "Cabin"
	})).Return(&domain.Record{ID: "recNEW", CreatedAt: time.Now()}, nil)

	rr := do(t, propertyRouter(svc), http.MethodPost, "/api/properties", map[string]any{"fields": map[string]any{"Title": "Cabin"}})
	assert.Equal(t, http.StatusCreated, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Property created successfully", body["message"])
}

func TestPropertyCreate_ValidationError(t *testing.T) {
	svc := &mockPropertySvc{}
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.Errorf(domain.ErrBadRequest, "Missing required fields: Price"))

	rr := do(t, propertyRouter(svc), http.MethodPost, "/api/properties", map[string]any{"Title": "Cabin"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing required fields: Price", decodeBody(t, rr)["message"])
}

func TestPropertyCreate_EmptyBody(t *testing.T) {
	rr := do(t, propertyRouter(&mockPropertySvc{}), http.MethodPost, "/api/properties", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPropertyUpdateStatus(t *testing.T) {
	svc := &mockPropertySvc{}
	svc.On("UpdateStatus", mock.Anything, "rec1", "Sold").Return(&domain.Record{ID: "rec1"}, nil)

	rr := do(t, propertyRouter(svc), http.MethodPost, "/api/properties/rec1/status", map[string]string{"status": "Sold"})
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestDeleteVerified_UsesPathID(t *testing.T) {
	svc := &mockPropertySvc{}
	want := domain.RedeemRequest{Email: "o@example.com", PropertyID: "rec123", Code: "123456", Token: "tok"}
	svc.On("DeleteVerified", mock.Anything, want, "192.0.2.1").Return(nil)

	rr := do(t, propertyRouter(svc), http.MethodPost, "/api/properties/rec123/delete", map[string]string{
		"email": "o@example.com", "code": "123456", "token": "tok", "propertyId": "recOTHER",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["deleted"])
	assert.Equal(t, "Property deleted successfully", body["message"])
}

func TestDeleteVerified_Forbidden(t *testing.T) {
	svc := &mockPropertySvc{}
	svc.On("DeleteVerified", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Error{Kind: domain.ErrForbidden, Message: "You are not authorized to delete this property"})

	rr := do(t, propertyRouter(svc), http.MethodPost, "/api/properties/rec123/delete", map[string]string{
		"email": "o@example.com", "code": "123456", "token": "tok",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "You are not authorized to delete this property", decodeBody(t, rr)["message"])
}

func TestDeleteVerified_BadCode(t *testing.T) {
	svc := &mockPropertySvc{}
	rr := do(t, propertyRouter(svc), http.MethodPost, "/api/properties/rec123/delete", map[string]string{
		"email": "o@example.com", "code": "12ab", "token": "tok",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "DeleteVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestContactEmail_BearerOrQuery(t *testing.T) {
	svc := &mockPropertySvc{}
	svc.On("ContactEmail", mock.Anything, domain.RedeemRequest{
		Email: "o@example.com", PropertyID: "rec1", Code: "123456", Token: "hdr",
	}, mock.Anything).Return("o@example.com", nil)
	svc.On("ContactEmail", mock.Anything, domain.RedeemRequest{
		Email: "o@example.com", PropertyID: "rec1", Code: "123456", Token: "qry",
	}, mock.Anything).Return("o@example.com", nil)
	h := propertyRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/properties/rec1/contact-email?email=o@example.com&code=123456&token=qry", nil)
	req.Header.Set("Authorization", "Bearer hdr")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "o@example.com", decodeBody(t, rr)["contactEmail"])

	rr = do(t, h, http.MethodGet, "/api/properties/rec1/contact-email?email=o@example.com&code=123456&token=qry", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestContactEmail_MissingToken(t *testing.T) {
	rr := do(t, propertyRouter(&mockPropertySvc{}), http.MethodGet, "/api/properties/rec1/contact-email?email=o@example.com&code=123456", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
