package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/pkg/validate"
	"github.com/property-listing-api/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies. Image uploads carry base64 data
// and get their own, larger limit.
const maxBodyBytes = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TokenEnvelope is returned when a verification code has been sent.
type TokenEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// RecordEnvelope wraps a single record.
type RecordEnvelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    *domain.Record `json:"data"`
}

// RecordListEnvelope wraps a record listing.
type RecordListEnvelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    []domain.Record `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// httpError maps a service error to a status code and a client-safe message.
// Causes are logged, never echoed.
func httpError(w http.ResponseWriter, log *zap.Logger, err error) {
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		middleware.SetRetryAfter(w, rl.RetryAfter)
		writeError(w, http.StatusTooManyRequests, rl.Message)
		return
	}
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, domain.PublicMessage(err, "Bad request"))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, domain.PublicMessage(err, "Unauthorized"))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, domain.PublicMessage(err, "Forbidden"))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, domain.PublicMessage(err, "Not found"))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, domain.PublicMessage(err, "Conflict"))
	case errors.Is(err, domain.ErrConfiguration):
		log.Error("server misconfigured", zap.Error(err))
		writeError(w, http.StatusInternalServerError, domain.PublicMessage(err, "Server configuration error"))
	case errors.Is(err, domain.ErrUpstream):
		log.Error("upstream call failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, domain.PublicMessage(err, "Upstream service error"))
	default:
		log.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode reads a JSON body of at most limit bytes into v.
func decode(w http.ResponseWriter, r *http.Request, v interface{}, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return domain.Errorf(domain.ErrBadRequest, "Request body too large")
		case errors.Is(err, io.EOF):
			return domain.Errorf(domain.ErrBadRequest, "Request body is required")
		default:
			return domain.Errorf(domain.ErrBadRequest, "Invalid request body")
		}
	}
	return nil
}

// decodeValid decodes and validates a tagged request struct.
func decodeValid(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := decode(w, r, v, maxBodyBytes); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return domain.Errorf(domain.ErrBadRequest, "%s", err.Error())
	}
	return nil
}
