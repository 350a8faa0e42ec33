package service

import (
	"context"
	"errors"
	"sync"
	"time"

	appointmentserrors "docbook/internal/appointments/errors"
	"docbook/internal/appointments/repository"
	"docbook/internal/appointments/validator"
	doctorserrors "docbook/internal/doctors/errors"
	patientserrors "docbook/internal/patients/errors"
	"docbook/pkg/config"
	apperrors "docbook/pkg/errors"
	"docbook/pkg/events"
	"docbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	cancelledByPatient = "Cancelled by patient"
	cancelledByDoctor  = "Cancelled by doctor"
	cancelledByAdmin   = "Cancelled by admin"
)

// doctorSource and patientSource are the slices of the doctor/patient
// repositories the booking flow needs.
type doctorSource interface {
	FindByID(ctx context.Context, id string) (*model.Doctor, error)
}

type patientSource interface {
	FindByID(ctx context.Context, id string) (*model.Patient, error)
}

type BookingService interface {
	Book(ctx context.Context, patientID string, req *model.BookAppointmentRequest) (*model.Appointment, error)
	CancelByPatient(ctx context.Context, patientID string, appointmentID string) (*model.Appointment, error)
	CancelByDoctor(ctx context.Context, doctorID string, appointmentID string, reason string) (*model.Appointment, error)
	CancelByAdmin(ctx context.Context, appointmentID string) (*model.Appointment, error)
	Complete(ctx context.Context, doctorID string, appointmentID string) (*model.Appointment, error)
	ListForPatient(ctx context.Context, patientID string) ([]*model.Appointment, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error)
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, int64, error)
}

type bookingService struct {
	repo      repository.AppointmentRepository
	ledger    repository.SlotLedger
	doctors   doctorSource
	patients  patientSource
	publisher events.Publisher
	validator *validator.AppointmentValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.AppointmentRepository,
	ledger repository.SlotLedger,
	doctors doctorSource,
	patients patientSource,
	publisher events.Publisher,
	validator *validator.AppointmentValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		ledger:    ledger,
		doctors:   doctors,
		patients:  patients,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// storeFailure maps a store error to the client-facing kind: deadline
// expiries are retryable, everything else is internal.
func storeFailure(message string, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable("mongodb")
	}
	return apperrors.Internal(message, err)
}

func (s *bookingService) Book(ctx context.Context, patientID string, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if patientID == "" {
		return nil, apperrors.InvalidInput("Patient ID cannot be empty")
	}
	if err := s.validator.ValidateBooking(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}

	doctor, err := s.doctors.FindByID(ctx, req.DocID)
	if err != nil {
		if errors.Is(err, doctorserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Doctor", req.DocID)
		}
		if errors.Is(err, doctorserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid doctor ID format")
		}
		return nil, storeFailure("Failed to load doctor", err)
	}
	if !doctor.Available {
		return nil, apperrors.DoctorUnavailable()
	}

	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, patientserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Patient", patientID)
		}
		if errors.Is(err, patientserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid patient ID format")
		}
		return nil, storeFailure("Failed to load patient", err)
	}

	// Fast path on the loaded document; the conditional reserve below is
	// what actually decides the race.
	if doctor.HasSlot(req.SlotDate, req.SlotTime) {
		return nil, apperrors.SlotTaken(req.SlotDate, req.SlotTime)
	}

	if err := s.ledger.Reserve(ctx, req.DocID, req.SlotDate, req.SlotTime); err != nil {
		if errors.Is(err, appointmentserrors.ErrSlotTaken) {
			return nil, apperrors.SlotTaken(req.SlotDate, req.SlotTime)
		}
		return nil, storeFailure("Failed to reserve slot", err)
	}

	appointment := &model.Appointment{
		UserID:   patientID,
		DocID:    req.DocID,
		SlotDate: req.SlotDate,
		SlotTime: req.SlotTime,
		UserData: model.PatientSnapshot{
			ID:          patient.ID,
			Name:        patient.Name,
			Email:       patient.Email,
			Phone:       patient.Phone,
			Image:       patient.Image,
			DateOfBirth: patient.DateOfBirth,
		},
		DocData: model.DoctorSnapshot{
			ID:         doctor.ID,
			Name:       doctor.Name,
			Speciality: doctor.Speciality,
			Degree:     doctor.Degree,
			Experience: doctor.Experience,
			Fees:       doctor.Fees,
			Image:      doctor.Image,
			Address:    doctor.Address,
		},
		Amount:   doctor.Fees,
		BookedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.repo.Insert(ctx, appointment); err != nil {
		// The slot is held but no appointment records it. Give the slot
		// back; if that also fails the ledger needs manual repair.
		if releaseErr := s.ledger.Release(ctx, req.DocID, req.SlotDate, req.SlotTime); releaseErr != nil {
			s.cfg.Log.Error("Slot reserved but appointment insert and rollback both failed",
				"doc_id", req.DocID,
				"slot_date", req.SlotDate,
				"slot_time", req.SlotTime,
				"insert_error", err,
				"release_error", releaseErr,
			)
			return nil, apperrors.Reconciliation("Appointment creation failed and slot release failed", releaseErr)
		}
		s.cfg.Log.Error("Failed to insert appointment, slot released",
			"doc_id", req.DocID,
			"slot_date", req.SlotDate,
			"slot_time", req.SlotTime,
			"error", err,
		)
		return nil, storeFailure("Failed to create appointment", err)
	}

	s.publisher.AppointmentBooked(ctx, appointment)

	s.cfg.Log.Info("Appointment booked successfully",
		"id", appointment.ID,
		"user_id", appointment.UserID,
		"doc_id", appointment.DocID,
		"slot_date", appointment.SlotDate,
		"slot_time", appointment.SlotTime,
		"amount", appointment.Amount,
	)
	return appointment, nil
}

func (s *bookingService) CancelByPatient(ctx context.Context, patientID string, appointmentID string) (*model.Appointment, error) {
	appointment, err := s.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.UserID != patientID {
		return nil, apperrors.Forbidden("You can only cancel your own appointments")
	}
	return s.cancel(ctx, appointment, cancelledByPatient)
}

func (s *bookingService) CancelByDoctor(ctx context.Context, doctorID string, appointmentID string, reason string) (*model.Appointment, error) {
	appointment, err := s.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.DocID != doctorID {
		return nil, apperrors.Forbidden("You can only cancel your own appointments")
	}
	if reason == "" {
		reason = cancelledByDoctor
	}
	return s.cancel(ctx, appointment, reason)
}

func (s *bookingService) CancelByAdmin(ctx context.Context, appointmentID string) (*model.Appointment, error) {
	appointment, err := s.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, appointment, cancelledByAdmin)
}

// cancel releases the slot and marks the appointment cancelled in one
// transaction, so a crash between the two cannot leave the slot free while
// the appointment still looks active.
func (s *bookingService) cancel(ctx context.Context, appointment *model.Appointment, reason string) (*model.Appointment, error) {
	if appointment.Cancelled {
		return nil, apperrors.AlreadyCancelled()
	}
	if appointment.IsCompleted {
		return nil, apperrors.CannotCancelCompleted()
	}

	cancelledAt := s.now().UTC().Truncate(time.Millisecond)
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ledger.Release(sessCtx, appointment.DocID, appointment.SlotDate, appointment.SlotTime); err != nil {
			return storeFailure("Failed to release slot", err)
		}
		if err := s.repo.MarkCancelled(sessCtx, appointment.ID, reason, cancelledAt); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrStatusChanged) {
			return nil, s.classifyStatusChange(ctx, appointment.ID, apperrors.CannotCancelCompleted())
		}
		s.cfg.Log.Error("Failed to cancel appointment", "id", appointment.ID, "error", err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, storeFailure("Failed to cancel appointment", err)
	}

	appointment.Cancelled = true
	appointment.CancelledAt = &cancelledAt
	appointment.CancellationReason = reason

	s.publisher.AppointmentCancelled(ctx, appointment)

	s.cfg.Log.Info("Appointment cancelled successfully",
		"id", appointment.ID,
		"doc_id", appointment.DocID,
		"slot_date", appointment.SlotDate,
		"slot_time", appointment.SlotTime,
		"reason", reason,
	)
	return appointment, nil
}

func (s *bookingService) Complete(ctx context.Context, doctorID string, appointmentID string) (*model.Appointment, error) {
	appointment, err := s.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.DocID != doctorID {
		return nil, apperrors.Forbidden("You can only complete your own appointments")
	}
	if appointment.IsCompleted {
		return nil, apperrors.AlreadyCompleted()
	}
	if appointment.Cancelled {
		return nil, apperrors.Conflict("Cannot complete a cancelled appointment")
	}

	completedAt := s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.MarkCompleted(ctx, appointmentID, doctorID, completedAt); err != nil {
		if errors.Is(err, appointmentserrors.ErrStatusChanged) {
			return nil, s.classifyStatusChange(ctx, appointmentID, apperrors.AlreadyCompleted())
		}
		return nil, storeFailure("Failed to complete appointment", err)
	}

	appointment.IsCompleted = true
	appointment.CompletedAt = &completedAt

	s.publisher.AppointmentCompleted(ctx, appointment)

	s.cfg.Log.Info("Appointment completed successfully",
		"id", appointment.ID,
		"doc_id", appointment.DocID,
	)
	return appointment, nil
}

func (s *bookingService) ListForPatient(ctx context.Context, patientID string) ([]*model.Appointment, error) {
	if patientID == "" {
		return nil, apperrors.InvalidInput("Patient ID cannot be empty")
	}

	appointments, err := s.repo.FindByPatient(ctx, patientID)
	if err != nil {
		s.cfg.Log.Error("Failed to list patient appointments", "user_id", patientID, "error", err)
		return nil, storeFailure("Failed to retrieve appointments", err)
	}
	return appointments, nil
}

func (s *bookingService) ListForDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error) {
	if doctorID == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	appointments, err := s.repo.FindByDoctor(ctx, doctorID)
	if err != nil {
		s.cfg.Log.Error("Failed to list doctor appointments", "doc_id", doctorID, "error", err)
		return nil, storeFailure("Failed to retrieve appointments", err)
	}
	return appointments, nil
}

func (s *bookingService) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, int64, error) {
	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "error", errCount)
			errCount = storeFailure("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appointments, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments", "error", errFind)
			errFind = storeFailure("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return appointments, count, nil
}

func (s *bookingService) loadAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmentserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		return nil, storeFailure("Failed to retrieve appointment", err)
	}
	return appointment, nil
}

// classifyStatusChange re-reads the appointment after a conditional update
// matched nothing, to report what the concurrent writer did. onCompleted is
// the error to use when the racer completed the appointment; cancel and
// complete flows report that case differently.
func (s *bookingService) classifyStatusChange(ctx context.Context, id string, onCompleted *apperrors.AppError) error {
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Conflict("Appointment status changed concurrently")
	}
	if appointment.Cancelled {
		return apperrors.AlreadyCancelled()
	}
	if appointment.IsCompleted {
		return onCompleted
	}
	return apperrors.Conflict("Appointment status changed concurrently")
}
