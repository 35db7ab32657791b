package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/property-listing-api/internal/application/property"
	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/validate"
	"github.com/property-listing-api/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// PropertyHandler serves the property catalog.
type PropertyHandler struct {
	svc property.Service
	log *zap.Logger
}

func NewPropertyHandler(svc property.Service, log *zap.Logger) *PropertyHandler {
	return &PropertyHandler{svc: svc, log: log}
}

type deleteEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}

type contactEnvelope struct {
	ContactEmail string `json:"contactEmail"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordListEnvelope{Success: true, Count: len(recs), Data: recs})
}

func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordEnvelope{Success: true, Data: rec})
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	rec, err := h.svc.Create(r.Context(), fields)
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordEnvelope{Success: true, Message: "Property created successfully", Data: rec})
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	rec, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordEnvelope{Success: true, Message: "Property updated successfully", Data: rec})
}

func (h *PropertyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeValid(w, r, &req); err != nil {
		httpError(w, h.log, err)
		return
	}
	rec, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordEnvelope{Success: true, Message: "Property status updated successfully", Data: rec})
}

// AdminDelete removes a listing without ownership checks.
func (h *PropertyHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httpError(w, h.log, err)
		return
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		h.log.Info("property deleted by operator", zap.String("record_id", id), zap.String("operator", claims.Subject))
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Property deleted successfully"})
}

// DeleteVerified removes a listing for the owner of its contact email.
func (h *PropertyHandler) DeleteVerified(w http.ResponseWriter, r *http.Request) {
	var req domain.RedeemRequest
	if err := decode(w, r, &req, maxBodyBytes); err != nil {
		httpError(w, h.log, err)
		return
	}
	req.PropertyID = chi.URLParam(r, "id")
	if err := validate.Struct(&req); err != nil {
		httpError(w, h.log, domain.Errorf(domain.ErrBadRequest, "%s", err.Error()))
		return
	}
	if err := h.svc.DeleteVerified(r.Context(), req, middleware.ClientIP(r)); err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteEnvelope{Success: true, Message: "Property deleted successfully", Deleted: true})
}

// ContactEmail discloses a listing's contact email to its verified owner. The
// token comes from the Bearer header or the token query parameter.
func (h *PropertyHandler) ContactEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tok, ok := middleware.BearerToken(r)
	if !ok {
		tok = q.Get("token")
	}
	req := domain.RedeemRequest{
		Email:      strings.TrimSpace(q.Get("email")),
		PropertyID: chi.URLParam(r, "id"),
		Code:       strings.TrimSpace(q.Get("code")),
		Token:      tok,
	}
	if err := validate.Struct(&req); err != nil {
		httpError(w, h.log, domain.Errorf(domain.ErrBadRequest, "%s", err.Error()))
		return
	}
	email, err := h.svc.ContactEmail(r.Context(), req, middleware.ClientIP(r))
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, contactEnvelope{ContactEmail: email})
}

func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var fields map[string]any
	if err := decode(w, r, &fields, maxBodyBytes); err != nil {
		return nil, err
	}
	// Accept both a bare field map and the record store's {"fields": {...}} shape.
	if inner, ok := fields["fields"].(map[string]any); ok {
		fields = inner
	}
	if len(fields) == 0 {
		return nil, domain.Errorf(domain.ErrBadRequest, "Request body is required")
	}
	return fields, nil
}
