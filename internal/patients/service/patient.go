package service

import (
	"context"
	"errors"

	patientserrors "docbook/internal/patients/errors"
	"docbook/internal/patients/repository"
	"docbook/internal/patients/validator"
	"docbook/pkg/auth"
	"docbook/pkg/config"
	apperrors "docbook/pkg/errors"
	"docbook/pkg/model"
	"docbook/pkg/sanitizer"
)

type PatientService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (string, *model.Patient, error)
	Login(ctx context.Context, email, password string) (string, *model.Patient, error)
	GetByID(ctx context.Context, id string) (*model.Patient, error)
	UpdateProfile(ctx context.Context, id string, update *model.PatientUpdate) (*model.Patient, error)
}

type patientService struct {
	repo      repository.PatientRepository
	validator *validator.PatientValidator
	cfg       *config.Config
}

func NewPatientService(repo repository.PatientRepository, validator *validator.PatientValidator, cfg *config.Config) PatientService {
	return &patientService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *patientService) Register(ctx context.Context, req *model.RegisterRequest) (string, *model.Patient, error) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Email = sanitizer.NormalizeEmail(req.Email)

	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("Patient registration validation failed", "error", err)
		return "", nil, apperrors.Validation("Invalid registration input", map[string]any{"error": err.Error()})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", nil, apperrors.Internal("Failed to hash password", err)
	}

	patient := &model.Patient{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		if errors.Is(err, patientserrors.ErrEmailTaken) {
			return "", nil, apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create patient", "error", err)
		return "", nil, apperrors.Internal("Failed to register patient", err)
	}

	token, err := auth.MakeToken(patient.ID, auth.RolePatient, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return "", nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("Patient registered successfully", "id", patient.ID)
	return token, patient.Public(), nil
}

func (s *patientService) Login(ctx context.Context, email, password string) (string, *model.Patient, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, apperrors.InvalidInput("Email and password are required")
	}

	patient, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, patientserrors.ErrNotFound) {
			return "", nil, apperrors.Unauthorized("Invalid credentials")
		}
		s.cfg.Log.Error("Failed to load patient for login", "error", err)
		return "", nil, apperrors.Internal("Failed to log in", err)
	}

	if !auth.CheckPassword(patient.Password, password) {
		return "", nil, apperrors.Unauthorized("Invalid credentials")
	}

	token, err := auth.MakeToken(patient.ID, auth.RolePatient, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return "", nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("Patient logged in", "id", patient.ID)
	return token, patient.Public(), nil
}

func (s *patientService) GetByID(ctx context.Context, id string) (*model.Patient, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Patient ID cannot be empty")
	}

	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, patientserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Patient", id)
		}
		if errors.Is(err, patientserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid patient ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve patient", err)
	}

	return patient.Public(), nil
}

func (s *patientService) UpdateProfile(ctx context.Context, id string, update *model.PatientUpdate) (*model.Patient, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Patient ID cannot be empty")
	}

	update.Name = sanitizer.NormalizeName(update.Name)
	update.Phone = sanitizer.NormalizePhone(update.Phone)

	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Patient update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.UpdateProfile(ctx, id, update); err != nil {
		if errors.Is(err, patientserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Patient", id)
		}
		if errors.Is(err, patientserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid patient ID format")
		}
		s.cfg.Log.Error("Failed to update patient", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update patient", err)
	}

	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to reload patient", err)
	}

	s.cfg.Log.Info("Patient profile updated", "id", id)
	return patient.Public(), nil
}
