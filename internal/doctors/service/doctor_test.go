package service

import (
	"context"
	"io"
	"testing"
	"time"

	doctorserrors "docbook/internal/doctors/errors"
	"docbook/internal/doctors/validator"
	"docbook/pkg/auth"
	"docbook/pkg/cache"
	"docbook/pkg/config"
	apperrors "docbook/pkg/errors"
	"docbook/pkg/logger"
	"docbook/pkg/model"
)

type mockDoctorRepo struct {
	createFn          func(ctx context.Context, d *model.Doctor) error
	findByIDFn        func(ctx context.Context, id string) (*model.Doctor, error)
	findByEmailFn     func(ctx context.Context, email string) (*model.Doctor, error)
	findAllFn         func(ctx context.Context) ([]*model.Doctor, error)
	updateProfileFn   func(ctx context.Context, id string, u *model.DoctorUpdate) error
	setAvailabilityFn func(ctx context.Context, id string, available bool) error
	countFn           func(ctx context.Context) (int64, error)
}

func (m *mockDoctorRepo) Create(ctx context.Context, d *model.Doctor) error {
	return m.createFn(ctx, d)
}

func (m *mockDoctorRepo) FindByID(ctx context.Context, id string) (*model.Doctor, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockDoctorRepo) FindByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	return m.findByEmailFn(ctx, email)
}

func (m *mockDoctorRepo) FindAll(ctx context.Context) ([]*model.Doctor, error) {
	return m.findAllFn(ctx)
}

func (m *mockDoctorRepo) UpdateProfile(ctx context.Context, id string, u *model.DoctorUpdate) error {
	return m.updateProfileFn(ctx, id, u)
}

func (m *mockDoctorRepo) SetAvailability(ctx context.Context, id string, available bool) error {
	return m.setAvailabilityFn(ctx, id, available)
}

func (m *mockDoctorRepo) Count(ctx context.Context) (int64, error) {
	return m.countFn(ctx)
}

type mockAppointmentSource struct {
	findByDoctorFn func(ctx context.Context, doctorID string) ([]*model.Appointment, error)
}

func (m *mockAppointmentSource) FindByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error) {
	return m.findByDoctorFn(ctx, doctorID)
}

const doctorID = "665f1f77bcf86cd799439011"

func testConfig() *config.Config {
	return &config.Config{
		Log:       logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
}

func storedDoctor(t *testing.T) *model.Doctor {
	t.Helper()
	hash, err := auth.HashPassword("doctor-password")
	if err != nil {
		t.Fatalf("hashing fixture password: %v", err)
	}
	return &model.Doctor{
		ID:         doctorID,
		Name:       "Dr. Richard James",
		Email:      "richard@example.com",
		Password:   hash,
		Speciality: "General physician",
		Degree:     "MBBS",
		Experience: "4 Years",
		About:      "Committed to preventive care.",
		Fees:       50,
		Available:  true,
	}
}

func newService(repo *mockDoctorRepo, appts *mockAppointmentSource, cfg *config.Config) DoctorService {
	if appts == nil {
		appts = &mockAppointmentSource{}
	}
	doctorCache := cache.NewDoctorCache(nil, time.Minute, cfg.Log)
	return NewDoctorService(repo, appts, doctorCache, validator.NewDoctorValidator(cfg.Log), cfg)
}

func TestListStripsCredentials(t *testing.T) {
	cfg := testConfig()
	repo := &mockDoctorRepo{
		findAllFn: func(context.Context) ([]*model.Doctor, error) {
			return []*model.Doctor{storedDoctor(t)}, nil
		},
	}

	doctors, err := newService(repo, nil, cfg).List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(doctors) != 1 {
		t.Fatalf("len = %d, want 1", len(doctors))
	}
	if doctors[0].Email != "" || doctors[0].Password != "" {
		t.Error("public listing leaked email or password")
	}
}

func TestLoginSuccess(t *testing.T) {
	cfg := testConfig()
	repo := &mockDoctorRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.Doctor, error) {
			if email != "richard@example.com" {
				return nil, doctorserrors.ErrNotFound
			}
			return storedDoctor(t), nil
		},
	}

	token, doctor, err := newService(repo, nil, cfg).Login(context.Background(), " Richard@Example.com ", "doctor-password")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims, err := auth.ParseToken(token, cfg.JWTSecret)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != doctorID || claims.Role != auth.RoleDoctor {
		t.Errorf("claims = %s/%s, want %s/doctor", claims.Subject, claims.Role, doctorID)
	}
	if doctor.Password != "" {
		t.Error("login response leaked password hash")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	cfg := testConfig()
	repo := &mockDoctorRepo{
		findByEmailFn: func(context.Context, string) (*model.Doctor, error) {
			return storedDoctor(t), nil
		},
	}

	_, _, err := newService(repo, nil, cfg).Login(context.Background(), "richard@example.com", "wrong")
	wantCode(t, err, apperrors.CodeUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	cfg := testConfig()
	repo := &mockDoctorRepo{
		findByEmailFn: func(context.Context, string) (*model.Doctor, error) {
			return nil, doctorserrors.ErrNotFound
		},
	}

	_, _, err := newService(repo, nil, cfg).Login(context.Background(), "nobody@example.com", "whatever")
	wantCode(t, err, apperrors.CodeUnauthorized)
}

func TestToggleAvailabilityFlips(t *testing.T) {
	cfg := testConfig()
	var setTo *bool
	repo := &mockDoctorRepo{
		findByIDFn: func(context.Context, string) (*model.Doctor, error) {
			return storedDoctor(t), nil
		},
		setAvailabilityFn: func(_ context.Context, _ string, available bool) error {
			setTo = &available
			return nil
		},
	}

	available, err := newService(repo, nil, cfg).ToggleAvailability(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("ToggleAvailability returned error: %v", err)
	}
	if available {
		t.Error("toggling an available doctor should return false")
	}
	if setTo == nil || *setTo {
		t.Error("repository not asked to store available=false")
	}
}

func TestDashboardAggregation(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	appts := []*model.Appointment{
		{ID: "a1", UserID: "p1", DocID: doctorID, Amount: 50, BookedAt: now},
		{ID: "a2", UserID: "p2", DocID: doctorID, Amount: 50, BookedAt: now.Add(-time.Hour), IsCompleted: true},
		{ID: "a3", UserID: "p1", DocID: doctorID, Amount: 50, BookedAt: now.Add(-2 * time.Hour), Cancelled: true},
		{ID: "a4", UserID: "p3", DocID: doctorID, Amount: 75, BookedAt: now.Add(-3 * time.Hour)},
		{ID: "a5", UserID: "p2", DocID: doctorID, Amount: 75, BookedAt: now.Add(-4 * time.Hour)},
		{ID: "a6", UserID: "p4", DocID: doctorID, Amount: 75, BookedAt: now.Add(-5 * time.Hour)},
	}
	repo := &mockDoctorRepo{}
	source := &mockAppointmentSource{
		findByDoctorFn: func(context.Context, string) ([]*model.Appointment, error) {
			return appts, nil
		},
	}

	dash, err := newService(repo, source, cfg).Dashboard(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}

	// a3 is cancelled and earns nothing: 50+50+75+75+75.
	if dash.Earnings != 325 {
		t.Errorf("Earnings = %v, want 325", dash.Earnings)
	}
	if dash.Appointments != 6 {
		t.Errorf("Appointments = %d, want 6", dash.Appointments)
	}
	if dash.Patients != 4 {
		t.Errorf("Patients = %d, want 4 unique", dash.Patients)
	}
	if len(dash.LatestAppointments) != 5 {
		t.Errorf("LatestAppointments = %d, want 5", len(dash.LatestAppointments))
	}
	if dash.LatestAppointments[0].ID != "a1" {
		t.Errorf("latest first = %s, want a1", dash.LatestAppointments[0].ID)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	cfg := testConfig()
	repo := &mockDoctorRepo{
		updateProfileFn: func(context.Context, string, *model.DoctorUpdate) error {
			t.Fatal("repository reached with invalid input")
			return nil
		},
	}

	badFees := -10.0
	_, err := newService(repo, nil, cfg).UpdateProfile(context.Background(), doctorID, &model.DoctorUpdate{Fees: &badFees})
	wantCode(t, err, apperrors.CodeValidation)
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
