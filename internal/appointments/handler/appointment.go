package handler

import (
	"encoding/json"
	"net/http"

	"docbook/internal/appointments/service"
	"docbook/pkg/auth"
	"docbook/pkg/config"
	apperrors "docbook/pkg/errors"
	httputil "docbook/pkg/http"
	"docbook/pkg/logger"
	"docbook/pkg/middleware"
	"docbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AppointmentHandler struct {
	booking      service.BookingService
	availability service.AvailabilityService
	cfg          *config.Config
	log          *logger.Logger
}

func NewAppointmentHandler(
	booking service.BookingService,
	availability service.AvailabilityService,
	cfg *config.Config,
) *AppointmentHandler {
	return &AppointmentHandler{
		booking:      booking,
		availability: availability,
		cfg:          cfg,
		log:          cfg.Log,
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Book)
	router.GET("/api/v1/appointments", h.ListAll)
	router.GET("/api/v1/appointments/me", h.ListMine)
	router.GET("/api/v1/appointments/doctor", h.ListForDoctor)
	router.POST("/api/v1/appointments/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/appointments/id/:id/doctor-cancel", h.DoctorCancel)
	router.POST("/api/v1/appointments/id/:id/admin-cancel", h.AdminCancel)
	router.POST("/api/v1/appointments/id/:id/complete", h.Complete)
	router.GET("/api/v1/doctors/id/:id/slots", h.ListSlots)
}

// identity pulls the authenticated caller and enforces its role.
func (h *AppointmentHandler) identity(w http.ResponseWriter, r *http.Request, role string) (auth.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "identity", apperrors.Unauthorized("Authentication required"))
		return auth.Identity{}, false
	}
	if id.Role != role {
		h.writeError(w, "identity", apperrors.Forbidden("Insufficient permissions"))
		return auth.Identity{}, false
	}
	return id, true
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r, auth.RolePatient)
	if !ok {
		return
	}

	var req model.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Book", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	appointment, err := h.booking.Book(r.Context(), id.Subject, &req)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := httputil.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r, auth.RolePatient)
	if !ok {
		return
	}

	appointments, err := h.booking.ListForPatient(r.Context(), id.Subject)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointments); err != nil {
		h.log.Error("failed to write success response", "handler", "ListMine", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) ListForDoctor(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r, auth.RoleDoctor)
	if !ok {
		return
	}

	appointments, err := h.booking.ListForDoctor(r.Context(), id.Subject)
	if err != nil {
		h.writeError(w, "ListForDoctor", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointments); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForDoctor", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := h.identity(w, r, auth.RoleAdmin); !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	appointments, total, err := h.booking.ListAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.identity(w, r, auth.RolePatient)
	if !ok {
		return
	}

	appointment, err := h.booking.CancelByPatient(r.Context(), id.Subject, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) DoctorCancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.identity(w, r, auth.RoleDoctor)
	if !ok {
		return
	}

	// Body is optional; an empty or absent body means the default reason.
	var req model.CancelAppointmentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
				Error: "Invalid request body",
			}); writeErr != nil {
				h.log.Error("failed to write JSON response", "handler", "DoctorCancel", "operation", "WriteJSON", "error", writeErr)
			}
			return
		}
	}

	appointment, err := h.booking.CancelByDoctor(r.Context(), id.Subject, ps.ByName("id"), req.Reason)
	if err != nil {
		h.writeError(w, "DoctorCancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "DoctorCancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) AdminCancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.identity(w, r, auth.RoleAdmin); !ok {
		return
	}

	appointment, err := h.booking.CancelByAdmin(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "AdminCancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "AdminCancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.identity(w, r, auth.RoleDoctor)
	if !ok {
		return
	}

	appointment, err := h.booking.Complete(r.Context(), id.Subject, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "Complete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) ListSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	days, err := h.availability.ListSlots(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ListSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, days); err != nil {
		h.log.Error("failed to write success response", "handler", "ListSlots", "operation", "WriteSuccess", "error", err)
	}
}
