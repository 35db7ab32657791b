package handler

import (
	"net/http"

	"github.com/property-listing-api/internal/application/image"
	"go.uber.org/zap"
)

// ImageHandler re-hosts listing photos on the configured image host.
type ImageHandler struct {
	svc       image.Service
	bodyLimit int64
	log       *zap.Logger
}

// NewImageHandler accepts bodies large enough for maxImageBytes of base64.
func NewImageHandler(svc image.Service, maxImageBytes int, log *zap.Logger) *ImageHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = image.DefaultMaxBytes
	}
	return &ImageHandler{svc: svc, bodyLimit: int64(maxImageBytes)/3*4 + 4096, log: log}
}

type imageRequest struct {
	ImageData string `json:"imageData"`
}

type imageEnvelope struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decode(w, r, &req, h.bodyLimit); err != nil {
		httpError(w, h.log, err)
		return
	}
	url, err := h.svc.Upload(r.Context(), req.ImageData)
	if err != nil {
		httpError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, imageEnvelope{Success: true, URL: url})
}
