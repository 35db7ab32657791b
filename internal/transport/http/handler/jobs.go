package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/property-listing-api/internal/application/expiration"
	"github.com/property-listing-api/internal/application/notification"
	"go.uber.org/zap"
)

// JobHandler exposes scheduled maintenance jobs to an authenticated scheduler.
type JobHandler struct {
	digest notification.Service
	sweep  expiration.Service
	log    *zap.Logger
}

func NewJobHandler(digest notification.Service, sweep expiration.Service, log *zap.Logger) *JobHandler {
	return &JobHandler{digest: digest, sweep: sweep, log: log}
}

type digestEnvelope struct {
	Success bool   `json:"success"`
	RunID   string `json:"runId"`
	notification.DigestResult
}

type sweepEnvelope struct {
	Success bool   `json:"success"`
	RunID   string `json:"runId"`
	expiration.Result
}

func (h *JobHandler) DailyDigest(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	log := h.log.With(zap.String("job", "daily-digest"), zap.String("run_id", runID))
	res, err := h.digest.SendDigest(r.Context())
	if err != nil {
		httpError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, digestEnvelope{Success: true, RunID: runID, DigestResult: res})
}

func (h *JobHandler) ExpireProperties(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	log := h.log.With(zap.String("job", "expire-properties"), zap.String("run_id", runID))
	res, err := h.sweep.Sweep(r.Context())
	if err != nil {
		httpError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepEnvelope{Success: true, RunID: runID, Result: res})
}
