package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/app/service"
	"github.com/atinyakov/clickshort/internal/models"
	"github.com/atinyakov/clickshort/internal/storage"
)

type AdminHandler struct {
	service service.URLServiceIface
	auth    service.AuthIface
	logger  *zap.Logger
}

func NewAdmin(s service.URLServiceIface, a service.AuthIface, l *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: s,
		auth:    a,
		logger:  l,
	}
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(res http.ResponseWriter, req *http.Request) {
	var request models.LoginRequest
	if err := decodeJSONBody(res, req, &request); err != nil {
		writeDecodeError(res, err, h.logger)
		return
	}

	token, err := h.auth.Login(req.Context(), request.Username, request.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.logger.Info("admin login rejected", zap.String("username", request.Username))
		WriteError(res, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("admin login failed", zap.Error(err))
		WriteError(res, http.StatusInternalServerError, "Server error")
		return
	}

	WriteJSON(res, http.StatusOK, models.LoginResponse{Token: token})
}

// URLs handles GET /api/admin/urls: every link, newest first, with totals.
func (h *AdminHandler) URLs(res http.ResponseWriter, req *http.Request) {
	overview, err := h.service.Overview(req.Context())
	if err != nil {
		h.logger.Error("cannot list links", zap.Error(err))
		WriteError(res, http.StatusInternalServerError, "Server error")
		return
	}

	if overview.URLs == nil {
		overview.URLs = []storage.Link{}
	}

	WriteJSON(res, http.StatusOK, overview)
}
