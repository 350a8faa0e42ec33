package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"

	doctorserrors "docbook/internal/doctors/errors"
	doctorsrepo "docbook/internal/doctors/repository"
	doctorsvalidator "docbook/internal/doctors/validator"
	"docbook/pkg/auth"
	"docbook/pkg/cache"
	"docbook/pkg/config"
	apperrors "docbook/pkg/errors"
	"docbook/pkg/model"
	"docbook/pkg/sanitizer"
)

// appointmentSource and patientCounter are the slices of the other domains'
// stores the admin views need.
type appointmentSource interface {
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error)
	Count(ctx context.Context) (int64, error)
}

type patientCounter interface {
	Count(ctx context.Context) (int64, error)
}

type AdminService interface {
	Login(ctx context.Context, email, password string) (string, error)
	AddDoctor(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error)
	Dashboard(ctx context.Context) (*model.AdminDashboard, error)
}

type adminService struct {
	doctors      doctorsrepo.DoctorRepository
	patients     patientCounter
	appointments appointmentSource
	cache        *cache.DoctorCache
	validator    *doctorsvalidator.DoctorValidator
	cfg          *config.Config
}

func NewAdminService(
	doctors doctorsrepo.DoctorRepository,
	patients patientCounter,
	appointments appointmentSource,
	cache *cache.DoctorCache,
	validator *doctorsvalidator.DoctorValidator,
	cfg *config.Config,
) AdminService {
	return &adminService{
		doctors:      doctors,
		patients:     patients,
		appointments: appointments,
		cache:        cache,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *adminService) Login(_ context.Context, email, password string) (string, error) {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		return "", apperrors.Unauthorized("Admin login is not configured")
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.AdminEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	if !emailOK || !passwordOK {
		return "", apperrors.Unauthorized("Invalid credentials")
	}

	token, err := auth.MakeToken("", auth.RoleAdmin, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return "", apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("Admin logged in")
	return token, nil
}

func (s *adminService) AddDoctor(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error) {
	doctor.Name = sanitizer.NormalizeName(doctor.Name)
	doctor.Email = sanitizer.NormalizeEmail(doctor.Email)
	doctor.About = sanitizer.NormalizeFreeText(doctor.About)

	if err := s.validator.Validate(doctor); err != nil {
		s.cfg.Log.Warn("Doctor validation failed", "error", err)
		return nil, apperrors.Validation("Invalid doctor input", map[string]any{"error": err.Error()})
	}

	hash, err := auth.HashPassword(doctor.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}
	doctor.Password = hash

	// New doctors are bookable until toggled off.
	doctor.Available = true

	if err := s.doctors.Create(ctx, doctor); err != nil {
		if errors.Is(err, doctorserrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create doctor", "error", err)
		return nil, apperrors.Internal("Failed to create doctor", err)
	}

	s.cache.Invalidate(ctx)

	s.cfg.Log.Info("Doctor created successfully", "id", doctor.ID, "speciality", doctor.Speciality)
	out := *doctor
	out.Password = ""
	return &out, nil
}

func (s *adminService) Dashboard(ctx context.Context) (*model.AdminDashboard, error) {
	var doctorCount, patientCount, appointmentCount int64
	var latest []*model.Appointment
	var errDoctors, errPatients, errAppointments, errLatest error
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		doctorCount, errDoctors = s.doctors.Count(ctx)
	}()
	go func() {
		defer wg.Done()
		patientCount, errPatients = s.patients.Count(ctx)
	}()
	go func() {
		defer wg.Done()
		appointmentCount, errAppointments = s.appointments.Count(ctx)
	}()
	go func() {
		defer wg.Done()
		latest, errLatest = s.appointments.FindAll(ctx, 5, 0)
	}()

	wg.Wait()
	for _, err := range []error{errDoctors, errPatients, errAppointments, errLatest} {
		if err != nil {
			s.cfg.Log.Error("Failed to build admin dashboard", "error", err)
			return nil, apperrors.Internal("Failed to build dashboard", err)
		}
	}

	if latest == nil {
		latest = []*model.Appointment{}
	}
	return &model.AdminDashboard{
		Doctors:            doctorCount,
		Patients:           patientCount,
		Appointments:       appointmentCount,
		LatestAppointments: latest,
	}, nil
}
