package handler

import (
	"encoding/json"
	"net/http"

	"docbook/internal/doctors/service"
	"docbook/pkg/auth"
	apperrors "docbook/pkg/errors"
	httputil "docbook/pkg/http"
	"docbook/pkg/logger"
	"docbook/pkg/middleware"
	"docbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type DoctorHandler struct {
	service service.DoctorService
	log     *logger.Logger
}

func NewDoctorHandler(service service.DoctorService, log *logger.Logger) *DoctorHandler {
	return &DoctorHandler{
		service: service,
		log:     log,
	}
}

func (h *DoctorHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/doctors", h.List)
	router.GET("/api/v1/doctors/id/:id", h.GetByID)
	router.POST("/api/v1/doctors/login", h.Login)
	router.GET("/api/v1/doctors/me", h.Me)
	router.PATCH("/api/v1/doctors/me", h.UpdateMe)
	router.POST("/api/v1/doctors/me/availability", h.ToggleAvailability)
	router.GET("/api/v1/doctors/me/dashboard", h.Dashboard)
}

type loginPayload struct {
	Token  string        `json:"token"`
	Doctor *model.Doctor `json:"doctor"`
}

func (h *DoctorHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "identity", apperrors.Unauthorized("Authentication required"))
		return auth.Identity{}, false
	}
	if !id.IsDoctor() {
		h.writeError(w, "identity", apperrors.Forbidden("Insufficient permissions"))
		return auth.Identity{}, false
	}
	return id, true
}

func (h *DoctorHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doctors, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, doctors); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DoctorHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doctor, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, doctor); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DoctorHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	token, doctor, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, loginPayload{Token: token, Doctor: doctor}); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DoctorHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	doctor, err := h.service.Profile(r.Context(), id.Subject)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, doctor); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DoctorHandler) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var update model.DoctorUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateMe", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	doctor, err := h.service.UpdateProfile(r.Context(), id.Subject, &update)
	if err != nil {
		h.writeError(w, "UpdateMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, doctor); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateMe", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DoctorHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	available, err := h.service.ToggleAvailability(r.Context(), id.Subject)
	if err != nil {
		h.writeError(w, "ToggleAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]bool{"available": available}); err != nil {
		h.log.Error("failed to write success response", "handler", "ToggleAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DoctorHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), id.Subject)
	if err != nil {
		h.writeError(w, "Dashboard", err)
		return
	}

	if err := httputil.WriteSuccess(w, dashboard); err != nil {
		h.log.Error("failed to write success response", "handler", "Dashboard", "operation", "WriteSuccess", "error", err)
	}
}
