package handler

import (
	"encoding/json"
	"net/http"

	adminservice "docbook/internal/admin/service"
	doctorsservice "docbook/internal/doctors/service"
	apperrors "docbook/pkg/errors"
	httputil "docbook/pkg/http"
	"docbook/pkg/logger"
	"docbook/pkg/middleware"
	"docbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AdminHandler struct {
	service adminservice.AdminService
	doctors doctorsservice.DoctorService
	log     *logger.Logger
}

func NewAdminHandler(service adminservice.AdminService, doctors doctorsservice.DoctorService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		doctors: doctors,
		log:     log,
	}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/admin/login", h.Login)
	router.POST("/api/v1/admin/doctors", h.AddDoctor)
	router.POST("/api/v1/admin/doctors/id/:id/availability", h.ToggleAvailability)
	router.GET("/api/v1/admin/dashboard", h.Dashboard)
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "requireAdmin", apperrors.Unauthorized("Authentication required"))
		return false
	}
	if !id.IsAdmin() {
		h.writeError(w, "requireAdmin", apperrors.Forbidden("Insufficient permissions"))
		return false
	}
	return true
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, model.AuthResponse{Token: token}); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) AddDoctor(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req model.AddDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "AddDoctor", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	created, err := h.service.AddDoctor(r.Context(), req.Doctor())
	if err != nil {
		h.writeError(w, "AddDoctor", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "AddDoctor", "operation", "WriteCreated", "error", err)
	}
}

func (h *AdminHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.requireAdmin(w, r) {
		return
	}

	available, err := h.doctors.ToggleAvailability(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ToggleAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]bool{"available": available}); err != nil {
		h.log.Error("failed to write success response", "handler", "ToggleAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.requireAdmin(w, r) {
		return
	}

	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, "Dashboard", err)
		return
	}

	if err := httputil.WriteSuccess(w, dashboard); err != nil {
		h.log.Error("failed to write success response", "handler", "Dashboard", "operation", "WriteSuccess", "error", err)
	}
}
