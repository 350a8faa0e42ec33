package handler

import (
	"encoding/json"
	"net/http"

	"docbook/internal/patients/service"
	"docbook/pkg/auth"
	apperrors "docbook/pkg/errors"
	httputil "docbook/pkg/http"
	"docbook/pkg/logger"
	"docbook/pkg/middleware"
	"docbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PatientHandler struct {
	service service.PatientService
	log     *logger.Logger
}

func NewPatientHandler(service service.PatientService, log *logger.Logger) *PatientHandler {
	return &PatientHandler{
		service: service,
		log:     log,
	}
}

func (h *PatientHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/patients/register", h.Register)
	router.POST("/api/v1/patients/login", h.Login)
	router.GET("/api/v1/patients/me", h.Me)
	router.PATCH("/api/v1/patients/me", h.UpdateMe)
}

type authPayload struct {
	Token   string         `json:"token"`
	Patient *model.Patient `json:"patient"`
}

func (h *PatientHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "identity", apperrors.Unauthorized("Authentication required"))
		return auth.Identity{}, false
	}
	if !id.IsPatient() {
		h.writeError(w, "identity", apperrors.Forbidden("Insufficient permissions"))
		return auth.Identity{}, false
	}
	return id, true
}

func (h *PatientHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PatientHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Register", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	token, patient, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, authPayload{Token: token, Patient: patient}); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *PatientHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	token, patient, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, authPayload{Token: token, Patient: patient}); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PatientHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	patient, err := h.service.GetByID(r.Context(), id.Subject)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, patient); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PatientHandler) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var update model.PatientUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateMe", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	patient, err := h.service.UpdateProfile(r.Context(), id.Subject, &update)
	if err != nil {
		h.writeError(w, "UpdateMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, patient); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateMe", "operation", "WriteSuccess", "error", err)
	}
}
