package property

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/property-listing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRecords struct{ mock.Mock }

func (m *mockRecords) Get(ctx context.Context, recordID string) (*domain.Record, error) {
	args := m.Called(ctx, recordID)
	if v := args.Get(0); v != nil {
		return v.(*domain.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

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

func (m *mockRecords) Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error) {
	args := m.Called(ctx, recordID, fields)
	if v := args.Get(0); v != nil {
		return v.(*domain.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecords) Delete(ctx context.Context, recordID string) error {
	return m.Called(ctx, recordID).Error(0)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Redeem(ctx context.Context, req domain.RedeemRequest, clientIP string) error {
	return m.Called(ctx, req, clientIP).Error(0)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) ListingCreated(ctx context.Context, ev domain.ListingEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func newSvc(recs *mockRecords, ver *mockVerifier, ev *mockDispatcher) Service {
	deps := ServiceDeps{Records: recs, Verifier: ver}
	if ev != nil {
		deps.Events = ev
	}
	return NewService(deps)
}

func ownedRecord(email string) *domain.Record {
	return &domain.Record{ID: "rec123", Fields: map[string]any{
		domain.FieldTitle:        "Cabin",
		domain.FieldContactEmail: email,
	}}
}

var redeem = domain.RedeemRequest{Email: "owner@example.com", PropertyID: "rec123", Code: "123456", Token: "tok"}

const clientIP = "203.0.113.7"

// --- tests ---

func TestDeleteVerified_ContactEmailMismatch_Forbidden(t *testing.T) {
	recs, ver := &mockRecords{}, &mockVerifier{}
	ver.On("Redeem", mock.Anything, redeem, clientIP).Return(nil)
	recs.On("Get", mock.Anything, "rec123").Return(ownedRecord("someone-else@example.com"), nil)

	err := newSvc(recs, ver, nil).DeleteVerified(context.Background(), redeem, clientIP)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, "You are not authorized to delete this property", domain.PublicMessage(err, ""))
	recs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteVerified_Success_CaseInsensitive(t *testing.T) {
	recs, ver := &mockRecords{}, &mockVerifier{}
	ver.On("Redeem", mock.Anything, redeem, clientIP).Return(nil)
	recs.On("Get", mock.Anything, "rec123").Return(ownedRecord("Owner@Example.COM"), nil)
	recs.On("Delete", mock.Anything, "rec123").Return(nil)

	require.NoError(t, newSvc(recs, ver, nil).DeleteVerified(context.Background(), redeem, clientIP))
	recs.AssertExpectations(t)
}

func TestDeleteVerified_RedeemFails_NoLookup(t *testing.T) {
	recs, ver := &mockRecords{}, &mockVerifier{}
	ver.On("Redeem", mock.Anything, redeem, clientIP).Return(&domain.Error{Kind: domain.ErrUnauthorized, Message: "Invalid verification code"})

	err := newSvc(recs, ver, nil).DeleteVerified(context.Background(), redeem, clientIP)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	recs.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	recs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteVerified_TokenRateLimited(t *testing.T) {
	recs, ver := &mockRecords{}, &mockVerifier{}
	ver.On("Redeem", mock.Anything, redeem, clientIP).Return(domain.TooManyRequests(time.Minute))

	err := newSvc(recs, ver, nil).DeleteVerified(context.Background(), redeem, clientIP)

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	recs.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestDeleteVerified_MissingStoredEmail_Forbidden(t *testing.T) {
	recs, ver := &mockRecords{}, &mockVerifier{}
	ver.On("Redeem", mock.Anything, redeem, clientIP).Return(nil)
	recs.On("Get", mock.Anything, "rec123").Return(&domain.Record{ID: "rec123", Fields: map[string]any{}}, nil)

	err := newSvc(recs, ver, nil).DeleteVerified(context.Background(), redeem, clientIP)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	recs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteVerified_NotFound(t *testing.T) {
	recs, ver := &mockRecords{}, &mockVerifier{}
	ver.On("Redeem", mock.Anything, redeem, clientIP).Return(nil)
	recs.On("Get", mock.Anything, "rec123").Return(nil, domain.ErrNotFound)

	err := newSvc(recs, ver, nil).DeleteVerified(context.Background(), redeem, clientIP)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContactEmail(t *testing.T) {
	recs, ver := &mockRecords{}, &mockVerifier{}
	ver.On("Redeem", mock.Anything, redeem, clientIP).Return(nil)
	recs.On("Get", mock.Anything, "rec123").Return(ownedRecord("owner@example.com"), nil)

	email, err := newSvc(recs, ver, nil).ContactEmail(context.Background(), redeem, clientIP)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", email)
}

func TestContactEmail_Mismatch(t *testing.T) {
	recs, ver := &mockRecords{}, &mockVerifier{}
	ver.On("Redeem", mock.Anything, redeem, clientIP).Return(nil)
	recs.On("Get", mock.Anything, "rec123").Return(ownedRecord("x@example.com"), nil)

	email, err := newSvc(recs, ver, nil).ContactEmail(context.Background(), redeem, clientIP)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, email)
}

func TestList_StripsPrivateFields(t *testing.T) {
	recs := &mockRecords{}
	recs.On("List", mock.Anything, domain.ListOptions{MaxRecords: DefaultMaxRecords, Fields: domain.PublicFields}).
		Return([]domain.Record{*ownedRecord("owner@example.com")}, nil)

	out, err := newSvc(recs, &mockVerifier{}, nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotContains(t, out[0].Fields, domain.FieldContactEmail)
	assert.Equal(t, "Cabin", out[0].Fields[domain.FieldTitle])
}

func TestGet_StripsPrivateFields(t *testing.T) {
	recs := &mockRecords{}
	rec := ownedRecord("owner@example.com")
	rec.Fields[domain.FieldWarningSent] = true
	recs.On("Get", mock.Anything, "rec123").Return(rec, nil)

	out, err := newSvc(recs, &mockVerifier{}, nil).Get(context.Background(), "rec123")
	require.NoError(t, err)
	assert.NotContains(t, out.Fields, domain.FieldContactEmail)
	assert.NotContains(t, out.Fields, domain.FieldWarningSent)
}

func TestCreate_DispatchesEvent(t *testing.T) {
	recs, ev := &mockRecords{}, &mockDispatcher{}
	created := &domain.Record{ID: "recNEW", Fields: map[string]any{
		domain.FieldTitle: "Cabin", domain.FieldLocation: "Provo", domain.FieldPrice: 100000.0,
		domain.FieldContactEmail: "o@example.com", domain.FieldStatus: domain.StatusAvailable,
	}}
	recs.On("Create", mock.Anything, mock.MatchedBy(func(f map[string]any) bool {
		return f[domain.FieldPrice] == 100000.0 && f[domain.FieldStatus] == domain.StatusAvailable
	})).Return(created, nil)
	ev.On("ListingCreated", mock.Anything, mock.MatchedBy(func(e domain.ListingEvent) bool {
		return e.RecordID == "recNEW" && e.Title == "Cabin"
	})).Return(nil)

	out, err := newSvc(recs, &mockVerifier{}, ev).Create(context.Background(), map[string]any{
		"Title": "Cabin", "Location": "Provo", "Price": "$100,000", "Contact's Email": "o@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "recNEW", out.ID)
	assert.NotContains(t, out.Fields, domain.FieldContactEmail)
	ev.AssertExpectations(t)
}

func TestCreate_DispatchFailureIsNotFatal(t *testing.T) {
	recs, ev := &mockRecords{}, &mockDispatcher{}
	recs.On("Create", mock.Anything, mock.Anything).Return(&domain.Record{ID: "recNEW", Fields: map[string]any{}}, nil)
	ev.On("ListingCreated", mock.Anything, mock.Anything).Return(errors.New("queue down"))

	_, err := newSvc(recs, &mockVerifier{}, ev).Create(context.Background(), map[string]any{
		"Title": "Cabin", "Location": "Provo", "Price": 1, "Contact's Email": "o@example.com",
	})
	assert.NoError(t, err)
}

func TestCreate_MissingRequired(t *testing.T) {
	recs := &mockRecords{}
	_, err := newSvc(recs, &mockVerifier{}, nil).Create(context.Background(), map[string]any{"Title": "Cabin"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	recs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdate_DropsContactEmail(t *testing.T) {
	recs := &mockRecords{}
	recs.On("Update", mock.Anything, "rec123", map[string]any{domain.FieldTitle: "New title"}).
		Return(&domain.Record{ID: "rec123", Fields: map[string]any{domain.FieldTitle: "New title"}}, nil)

	_, err := newSvc(recs, &mockVerifier{}, nil).Update(context.Background(), "rec123", map[string]any{
		"Title": "New title", "Contact's Email": "attacker@example.com",
	})
	require.NoError(t, err)
	recs.AssertExpectations(t)
}

func TestUpdate_NothingToUpdate(t *testing.T) {
	_, err := newSvc(&mockRecords{}, &mockVerifier{}, nil).Update(context.Background(), "rec123", map[string]any{"Bogus": 1})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdateStatus(t *testing.T) {
	recs := &mockRecords{}
	recs.On("Update", mock.Anything, "rec123", map[string]any{domain.FieldStatus: domain.StatusSold}).
		Return(&domain.Record{ID: "rec123", Fields: map[string]any{domain.FieldStatus: domain.StatusSold}}, nil)
	svc := newSvc(recs, &mockVerifier{}, nil)

	rec, err := svc.UpdateStatus(context.Background(), "rec123", "Sold")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, rec.Fields[domain.FieldStatus])

	_, err = svc.UpdateStatus(context.Background(), "rec123", "Gone")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
