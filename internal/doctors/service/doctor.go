package service

import (
	"context"
	"errors"

	doctorserrors "docbook/internal/doctors/errors"
	"docbook/internal/doctors/repository"
	"docbook/internal/doctors/validator"
	"docbook/pkg/auth"
	"docbook/pkg/cache"
	"docbook/pkg/config"
	apperrors "docbook/pkg/errors"
	"docbook/pkg/model"
	"docbook/pkg/sanitizer"
)

// appointmentSource is the slice of the appointment store the dashboard
// needs.
type appointmentSource interface {
	FindByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error)
}

type DoctorService interface {
	List(ctx context.Context) ([]*model.Doctor, error)
	GetByID(ctx context.Context, id string) (*model.Doctor, error)
	Login(ctx context.Context, email, password string) (string, *model.Doctor, error)
	Profile(ctx context.Context, id string) (*model.Doctor, error)
	UpdateProfile(ctx context.Context, id string, update *model.DoctorUpdate) (*model.Doctor, error)
	ToggleAvailability(ctx context.Context, id string) (bool, error)
	Dashboard(ctx context.Context, id string) (*model.DoctorDashboard, error)
}

type doctorService struct {
	repo         repository.DoctorRepository
	appointments appointmentSource
	cache        *cache.DoctorCache
	validator    *validator.DoctorValidator
	cfg          *config.Config
}

func NewDoctorService(
	repo repository.DoctorRepository,
	appointments appointmentSource,
	cache *cache.DoctorCache,
	validator *validator.DoctorValidator,
	cfg *config.Config,
) DoctorService {
	return &doctorService{
		repo:         repo,
		appointments: appointments,
		cache:        cache,
		validator:    validator,
		cfg:          cfg,
	}
}

// List returns the public doctor directory, served from cache when warm.
func (s *doctorService) List(ctx context.Context) ([]*model.Doctor, error) {
	if doctors, ok := s.cache.GetDoctors(ctx); ok {
		return doctors, nil
	}

	doctors, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list doctors", "error", err)
		return nil, apperrors.Internal("Failed to retrieve doctors", err)
	}

	public := make([]*model.Doctor, 0, len(doctors))
	for _, d := range doctors {
		public = append(public, d.Public())
	}

	s.cache.SetDoctors(ctx, public)
	return public, nil
}

func (s *doctorService) GetByID(ctx context.Context, id string) (*model.Doctor, error) {
	doctor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return doctor.Public(), nil
}

func (s *doctorService) Login(ctx context.Context, email, password string) (string, *model.Doctor, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, apperrors.InvalidInput("Email and password are required")
	}

	doctor, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, doctorserrors.ErrNotFound) {
			return "", nil, apperrors.Unauthorized("Invalid credentials")
		}
		s.cfg.Log.Error("Failed to load doctor for login", "error", err)
		return "", nil, apperrors.Internal("Failed to log in", err)
	}

	if !auth.CheckPassword(doctor.Password, password) {
		return "", nil, apperrors.Unauthorized("Invalid credentials")
	}

	token, err := auth.MakeToken(doctor.ID, auth.RoleDoctor, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return "", nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("Doctor logged in", "id", doctor.ID)
	out := *doctor
	out.Password = ""
	return token, &out, nil
}

// Profile returns the doctor's own record, email included.
func (s *doctorService) Profile(ctx context.Context, id string) (*model.Doctor, error) {
	doctor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := *doctor
	out.Password = ""
	return &out, nil
}

func (s *doctorService) UpdateProfile(ctx context.Context, id string, update *model.DoctorUpdate) (*model.Doctor, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	update.Name = sanitizer.NormalizeName(update.Name)
	update.About = sanitizer.NormalizeFreeText(update.About)

	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Doctor update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.UpdateProfile(ctx, id, update); err != nil {
		if errors.Is(err, doctorserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Doctor", id)
		}
		if errors.Is(err, doctorserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid doctor ID format")
		}
		s.cfg.Log.Error("Failed to update doctor", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update doctor", err)
	}

	s.cache.Invalidate(ctx)

	doctor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cfg.Log.Info("Doctor profile updated", "id", id)
	out := *doctor
	out.Password = ""
	return &out, nil
}

func (s *doctorService) ToggleAvailability(ctx context.Context, id string) (bool, error) {
	doctor, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}

	next := !doctor.Available
	if err := s.repo.SetAvailability(ctx, id, next); err != nil {
		if errors.Is(err, doctorserrors.ErrNotFound) {
			return false, apperrors.NotFoundWithID("Doctor", id)
		}
		s.cfg.Log.Error("Failed to toggle doctor availability", "id", id, "error", err)
		return false, apperrors.Internal("Failed to toggle availability", err)
	}

	s.cache.Invalidate(ctx)

	s.cfg.Log.Info("Doctor availability toggled", "id", id, "available", next)
	return next, nil
}

// Dashboard folds the doctor's appointment history into earnings, unique
// patient count and the five most recent bookings. Cancelled appointments
// do not earn.
func (s *doctorService) Dashboard(ctx context.Context, id string) (*model.DoctorDashboard, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	appointments, err := s.appointments.FindByDoctor(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to load doctor appointments", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to build dashboard", err)
	}

	dashboard := &model.DoctorDashboard{
		Appointments:       len(appointments),
		LatestAppointments: []*model.Appointment{},
	}

	patients := make(map[string]struct{})
	for _, a := range appointments {
		if !a.Cancelled {
			dashboard.Earnings += a.Amount
		}
		patients[a.UserID] = struct{}{}
	}
	dashboard.Patients = len(patients)

	// FindByDoctor sorts newest first.
	if len(appointments) > 5 {
		dashboard.LatestAppointments = appointments[:5]
	} else {
		dashboard.LatestAppointments = appointments
	}

	return dashboard, nil
}

func (s *doctorService) load(ctx context.Context, id string) (*model.Doctor, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	doctor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, doctorserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Doctor", id)
		}
		if errors.Is(err, doctorserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid doctor ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve doctor", err)
	}
	return doctor, nil
}
