package service

import (
	"context"
	"io"
	"testing"
	"time"

	doctorserrors "docbook/internal/doctors/errors"
	doctorsvalidator "docbook/internal/doctors/validator"
	"docbook/pkg/auth"
	"docbook/pkg/cache"
	"docbook/pkg/config"
	apperrors "docbook/pkg/errors"
	"docbook/pkg/logger"
	"docbook/pkg/model"
)

type mockDoctorRepo struct {
	createFn func(ctx context.Context, d *model.Doctor) error
	countFn  func(ctx context.Context) (int64, error)
}

func (m *mockDoctorRepo) Create(ctx context.Context, d *model.Doctor) error {
	return m.createFn(ctx, d)
}

func (m *mockDoctorRepo) FindByID(context.Context, string) (*model.Doctor, error) {
	return nil, doctorserrors.ErrNotFound
}

func (m *mockDoctorRepo) FindByEmail(context.Context, string) (*model.Doctor, error) {
	return nil, doctorserrors.ErrNotFound
}

func (m *mockDoctorRepo) FindAll(context.Context) ([]*model.Doctor, error) {
	return nil, nil
}

func (m *mockDoctorRepo) UpdateProfile(context.Context, string, *model.DoctorUpdate) error {
	return nil
}

func (m *mockDoctorRepo) SetAvailability(context.Context, string, bool) error {
	return nil
}

func (m *mockDoctorRepo) Count(ctx context.Context) (int64, error) {
	return m.countFn(ctx)
}

type mockPatientCounter struct {
	countFn func(ctx context.Context) (int64, error)
}

func (m *mockPatientCounter) Count(ctx context.Context) (int64, error) {
	return m.countFn(ctx)
}

type mockAppointmentSource struct {
	findAllFn func(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error)
	countFn   func(ctx context.Context) (int64, error)
}

func (m *mockAppointmentSource) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error) {
	return m.findAllFn(ctx, limit, offset)
}

func (m *mockAppointmentSource) Count(ctx context.Context) (int64, error) {
	return m.countFn(ctx)
}

func testConfig() *config.Config {
	return &config.Config{
		Log:           logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin-password",
	}
}

func newService(doctors *mockDoctorRepo, patients *mockPatientCounter, appts *mockAppointmentSource, cfg *config.Config) AdminService {
	if patients == nil {
		patients = &mockPatientCounter{}
	}
	if appts == nil {
		appts = &mockAppointmentSource{}
	}
	return NewAdminService(
		doctors,
		patients,
		appts,
		cache.NewDoctorCache(nil, time.Minute, cfg.Log),
		doctorsvalidator.NewDoctorValidator(cfg.Log),
		cfg,
	)
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if !apperrors.IsCode(err, code) {
		t.Fatalf("expected error code %s, got: %v", code, err)
	}
}

func TestAdminLoginSuccess(t *testing.T) {
	cfg := testConfig()
	svc := newService(&mockDoctorRepo{}, nil, nil, cfg)

	token, err := svc.Login(context.Background(), "admin@example.com", "admin-password")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims, err := auth.ParseToken(token, cfg.JWTSecret)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Role != auth.RoleAdmin {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
}

func TestAdminLoginBadCredentials(t *testing.T) {
	cfg := testConfig()
	svc := newService(&mockDoctorRepo{}, nil, nil, cfg)

	if _, err := svc.Login(context.Background(), "admin@example.com", "wrong"); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Errorf("wrong password: got %v, want UNAUTHORIZED", err)
	}
	if _, err := svc.Login(context.Background(), "other@example.com", "admin-password"); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Errorf("wrong email: got %v, want UNAUTHORIZED", err)
	}
}

func TestAdminLoginUnconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.AdminEmail = ""
	cfg.AdminPassword = ""
	svc := newService(&mockDoctorRepo{}, nil, nil, cfg)

	_, err := svc.Login(context.Background(), "admin@example.com", "admin-password")
	wantCode(t, err, apperrors.CodeUnauthorized)
}

func TestAddDoctorHashesAndDefaults(t *testing.T) {
	cfg := testConfig()
	var stored *model.Doctor
	repo := &mockDoctorRepo{
		createFn: func(_ context.Context, d *model.Doctor) error {
			d.ID = "665f1f77bcf86cd799439011"
			stored = d
			return nil
		},
	}

	created, err := newService(repo, nil, nil, cfg).AddDoctor(context.Background(), &model.Doctor{
		Name:       " Dr.  Richard James ",
		Email:      " Richard@Example.COM",
		Password:   "doctor-password",
		Speciality: "General physician",
		Degree:     "MBBS",
		Experience: "4 Years",
		About:      "Committed to preventive care.",
		Fees:       50,
	})
	if err != nil {
		t.Fatalf("AddDoctor returned error: %v", err)
	}

	if stored.Name != "Dr. Richard James" || stored.Email != "richard@example.com" {
		t.Errorf("stored name/email = %q/%q, want normalized", stored.Name, stored.Email)
	}
	if !auth.CheckPassword(stored.Password, "doctor-password") {
		t.Error("stored hash does not verify the original password")
	}
	if !stored.Available {
		t.Error("new doctor should default to available")
	}
	if created.Password != "" {
		t.Error("response leaked password hash")
	}
}

func TestAddDoctorValidation(t *testing.T) {
	cfg := testConfig()
	repo := &mockDoctorRepo{
		createFn: func(context.Context, *model.Doctor) error {
			t.Fatal("repository reached with invalid input")
			return nil
		},
	}

	_, err := newService(repo, nil, nil, cfg).AddDoctor(context.Background(), &model.Doctor{
		Name:  "Dr. No Fields",
		Email: "not-an-email",
	})
	wantCode(t, err, apperrors.CodeValidation)
}

func TestAddDoctorDuplicateEmail(t *testing.T) {
	cfg := testConfig()
	repo := &mockDoctorRepo{
		createFn: func(context.Context, *model.Doctor) error {
			return doctorserrors.ErrEmailTaken
		},
	}

	_, err := newService(repo, nil, nil, cfg).AddDoctor(context.Background(), &model.Doctor{
		Name:       "Dr. Richard James",
		Email:      "richard@example.com",
		Password:   "doctor-password",
		Speciality: "General physician",
		Degree:     "MBBS",
		Experience: "4 Years",
		About:      "Committed to preventive care.",
		Fees:       50,
	})
	wantCode(t, err, apperrors.CodeConflict)
}

func TestDashboardCounts(t *testing.T) {
	cfg := testConfig()
	repo := &mockDoctorRepo{
		countFn: func(context.Context) (int64, error) { return 3, nil },
	}
	patients := &mockPatientCounter{
		countFn: func(context.Context) (int64, error) { return 12, nil },
	}
	appts := &mockAppointmentSource{
		countFn: func(context.Context) (int64, error) { return 40, nil },
		findAllFn: func(_ context.Context, limit int, _ int64) ([]*model.Appointment, error) {
			if limit != 5 {
				t.Errorf("latest limit = %d, want 5", limit)
			}
			return []*model.Appointment{{ID: "a1"}}, nil
		},
	}

	dash, err := newService(repo, patients, appts, cfg).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if dash.Doctors != 3 || dash.Patients != 12 || dash.Appointments != 40 {
		t.Errorf("counts = %d/%d/%d, want 3/12/40", dash.Doctors, dash.Patients, dash.Appointments)
	}
	if len(dash.LatestAppointments) != 1 {
		t.Errorf("latest = %d, want 1", len(dash.LatestAppointments))
	}
}
