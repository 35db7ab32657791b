package handler

import (
	"net/http"

	"github.com/property-listing-api/internal/application/subscription"
	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// SubscribeHandler records new-listing email subscriptions.
type SubscribeHandler struct {
	svc subscription.Service
	log *zap.Logger
}

func NewSubscribeHandler(svc subscription.Service, log *zap.Logger) *SubscribeHandler {
	return &SubscribeHandler{svc: svc, log: log}
}

func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscribeRequest
	if err := decodeValid(w, r, &req); err != nil {
		httpError(w, h.log, err)
		return
	}
	msg, _, err := h.svc.Subscribe(r.Context(), req, middleware.ClientIP(r))
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: msg})
}
