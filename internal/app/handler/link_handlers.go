package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/app/service"
	"github.com/atinyakov/clickshort/internal/models"
	"github.com/atinyakov/clickshort/internal/storage"
)

type LinkHandler struct {
	service service.URLServiceIface
	logger  *zap.Logger
}

func NewLink(s service.URLServiceIface, l *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: s,
		logger:  l,
	}
}

// Shorten handles POST /api/shorten. Shortening a URL that already has a code
// answers with the existing code and the same 200 status.
func (h *LinkHandler) Shorten(res http.ResponseWriter, req *http.Request) {
	var request models.ShortenRequest
	if err := decodeJSONBody(res, req, &request); err != nil {
		writeDecodeError(res, err, h.logger)
		return
	}

	link, err := h.service.Shorten(req.Context(), request.OriginalURL)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrURLRequired):
		WriteError(res, http.StatusBadRequest, "Original URL is required")
		return
	case errors.Is(err, service.ErrInvalidURL):
		WriteError(res, http.StatusBadRequest, "Invalid URL format")
		return
	default:
		h.logger.Error("cannot shorten url", zap.String("original", request.OriginalURL), zap.Error(err))
		WriteError(res, http.StatusInternalServerError, "Server error")
		return
	}

	WriteJSON(res, http.StatusOK, models.ShortenResponse{
		OriginalURL: link.Original,
		ShortCode:   link.Code,
		ShortURL:    h.service.ShortURL(link.Code),
	})
}

// Redirect handles GET /{shortCode} with a 302 to the original URL.
func (h *LinkHandler) Redirect(res http.ResponseWriter, req *http.Request) {
	code := chi.URLParam(req, "shortCode")

	original, err := h.service.Resolve(req.Context(), code)
	if errors.Is(err, storage.ErrNotFound) {
		WriteError(res, http.StatusNotFound, "URL not found")
		return
	}
	if err != nil {
		h.logger.Error("cannot resolve code", zap.String("code", code), zap.Error(err))
		WriteError(res, http.StatusInternalServerError, "Server error")
		return
	}

	http.Redirect(res, req, original, http.StatusFound)
}

// Ping reports whether the link store is reachable.
func (h *LinkHandler) Ping(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	if err := h.service.PingContext(ctx); err != nil {
		h.logger.Error("storage ping failed", zap.Error(err))
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}
