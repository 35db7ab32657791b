package handler

import (
	"net/http"

	"github.com/property-listing-api/internal/application/inquiry"
	"github.com/property-listing-api/internal/domain"
	"go.uber.org/zap"
)

type InquiryHandler struct {
	svc inquiry.Service
	log *zap.Logger
}

func NewInquiryHandler(svc inquiry.Service, log *zap.Logger) *InquiryHandler {
	return &InquiryHandler{svc: svc, log: log}
}

func (h *InquiryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.InquiryRequest
	if err := decodeValid(w, r, &req); err != nil {
		httpError(w, h.log, err)
		return
	}
	rec, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordEnvelope{Success: true, Message: "Inquiry submitted successfully", Data: rec})
}
