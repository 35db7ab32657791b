package handler

import (
	"net/http"

	"github.com/property-listing-api/internal/application/verification"
	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// VerificationHandler serves the two-step email ownership flow.
type VerificationHandler struct {
	svc verification.Service
	log *zap.Logger
}

func NewVerificationHandler(svc verification.Service, log *zap.Logger) *VerificationHandler {
	return &VerificationHandler{svc: svc, log: log}
}

func (h *VerificationHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req domain.VerificationRequest
	if err := decodeValid(w, r, &req); err != nil {
		httpError(w, h.log, err)
		return
	}
	tok, err := h.svc.RequestCode(r.Context(), req, middleware.ClientIP(r))
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{
		Success: true,
		Message: "Verification code sent to your email",
		Token:   tok,
	})
}

func (h *VerificationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req domain.RedeemRequest
	if err := decodeValid(w, r, &req); err != nil {
		httpError(w, h.log, err)
		return
	}
	if err := h.svc.Redeem(r.Context(), req, middleware.ClientIP(r)); err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Email verified successfully"})
}
