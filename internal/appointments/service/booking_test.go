package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	appointmentserrors "docbook/internal/appointments/errors"
	"docbook/internal/appointments/validator"
	doctorserrors "docbook/internal/doctors/errors"
	"docbook/pkg/config"
	mongotx "docbook/pkg/db/mongo"
	apperrors "docbook/pkg/errors"
	"docbook/pkg/logger"
	"docbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// --- Mocks ---

type mockAppointmentRepo struct {
	insertFn        func(ctx context.Context, a *model.Appointment) error
	findByIDFn      func(ctx context.Context, id string) (*model.Appointment, error)
	findByPatientFn func(ctx context.Context, patientID string) ([]*model.Appointment, error)
	findByDoctorFn  func(ctx context.Context, doctorID string) ([]*model.Appointment, error)
	findAllFn       func(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error)
	countFn         func(ctx context.Context) (int64, error)
	markCancelledFn func(ctx context.Context, id, reason string, at time.Time) error
	markCompletedFn func(ctx context.Context, id, doctorID string, at time.Time) error
}

func (m *mockAppointmentRepo) Insert(ctx context.Context, a *model.Appointment) error {
	return m.insertFn(ctx, a)
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockAppointmentRepo) FindByPatient(ctx context.Context, patientID string) ([]*model.Appointment, error) {
	return m.findByPatientFn(ctx, patientID)
}

func (m *mockAppointmentRepo) FindByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error) {
	return m.findByDoctorFn(ctx, doctorID)
}

func (m *mockAppointmentRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error) {
	return m.findAllFn(ctx, limit, offset)
}

func (m *mockAppointmentRepo) Count(ctx context.Context) (int64, error) {
	return m.countFn(ctx)
}

func (m *mockAppointmentRepo) MarkCancelled(ctx context.Context, id, reason string, at time.Time) error {
	return m.markCancelledFn(ctx, id, reason, at)
}

func (m *mockAppointmentRepo) MarkCompleted(ctx context.Context, id, doctorID string, at time.Time) error {
	return m.markCompletedFn(ctx, id, doctorID, at)
}

func (m *mockAppointmentRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	var sessCtx mongo.SessionContext
	return fn(sessCtx)
}

// memoryLedger mimics the conditional reserve semantics of the slot ledger.
// Safe for concurrent use, so booking races can be tested for real.
type memoryLedger struct {
	mu    sync.Mutex
	slots map[string]map[string][]string

	reserveErr error
	releaseErr error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{slots: make(map[string]map[string][]string)}
}

func (l *memoryLedger) IsBooked(_ context.Context, doctorID, dateKey, slotTime string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.slots[doctorID][dateKey] {
		if t == slotTime {
			return true, nil
		}
	}
	return false, nil
}

func (l *memoryLedger) Reserve(_ context.Context, doctorID, dateKey, slotTime string) error {
	if l.reserveErr != nil {
		return l.reserveErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.slots[doctorID][dateKey] {
		if t == slotTime {
			return appointmentserrors.ErrSlotTaken
		}
	}
	if l.slots[doctorID] == nil {
		l.slots[doctorID] = make(map[string][]string)
	}
	l.slots[doctorID][dateKey] = append(l.slots[doctorID][dateKey], slotTime)
	return nil
}

func (l *memoryLedger) Release(_ context.Context, doctorID, dateKey, slotTime string) error {
	if l.releaseErr != nil {
		return l.releaseErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	times := l.slots[doctorID][dateKey]
	for i, t := range times {
		if t == slotTime {
			l.slots[doctorID][dateKey] = append(times[:i], times[i+1:]...)
			break
		}
	}
	if len(l.slots[doctorID][dateKey]) == 0 {
		delete(l.slots[doctorID], dateKey)
	}
	return nil
}

type mockDoctorSource struct {
	findByIDFn func(ctx context.Context, id string) (*model.Doctor, error)
}

func (m *mockDoctorSource) FindByID(ctx context.Context, id string) (*model.Doctor, error) {
	return m.findByIDFn(ctx, id)
}

type mockPatientSource struct {
	findByIDFn func(ctx context.Context, id string) (*model.Patient, error)
}

func (m *mockPatientSource) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	return m.findByIDFn(ctx, id)
}

// recordingPublisher counts event deliveries per type.
type recordingPublisher struct {
	mu        sync.Mutex
	booked    int
	cancelled int
	completed int
}

func (p *recordingPublisher) AppointmentBooked(context.Context, *model.Appointment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.booked++
}

func (p *recordingPublisher) AppointmentCancelled(context.Context, *model.Appointment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled++
}

func (p *recordingPublisher) AppointmentCompleted(context.Context, *model.Appointment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed++
}

func (p *recordingPublisher) Close() error { return nil }

// --- Fixtures ---

const (
	testDoctorID  = "665f1f77bcf86cd799439011"
	testPatientID = "665f1f77bcf86cd799439022"
	testApptID    = "665f1f77bcf86cd799439033"
	testDateKey   = "15_09_2026"
	testSlotTime  = "10:30"
)

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
	}
}

func testDoctor() *model.Doctor {
	return &model.Doctor{
		ID:         testDoctorID,
		Name:       "Dr. Richard James",
		Email:      "richard@example.com",
		Password:   "hashed",
		Speciality: "General physician",
		Degree:     "MBBS",
		Experience: "4 Years",
		About:      "Committed to preventive care.",
		Fees:       50,
		Available:  true,
	}
}

func testPatient() *model.Patient {
	return &model.Patient{
		ID:    testPatientID,
		Name:  "Alice Smith",
		Email: "alice@example.com",
		Phone: "+14155552671",
	}
}

func bookRequest() *model.BookAppointmentRequest {
	return &model.BookAppointmentRequest{
		DocID:    testDoctorID,
		SlotDate: testDateKey,
		SlotTime: testSlotTime,
	}
}

type fixture struct {
	repo      *mockAppointmentRepo
	ledger    *memoryLedger
	doctors   *mockDoctorSource
	patients  *mockPatientSource
	publisher *recordingPublisher
	svc       BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()

	f := &fixture{
		repo:      &mockAppointmentRepo{},
		ledger:    newMemoryLedger(),
		doctors:   &mockDoctorSource{},
		patients:  &mockPatientSource{},
		publisher: &recordingPublisher{},
	}
	f.repo.insertFn = func(_ context.Context, a *model.Appointment) error {
		a.ID = testApptID
		return nil
	}
	f.doctors.findByIDFn = func(_ context.Context, id string) (*model.Doctor, error) {
		if id != testDoctorID {
			return nil, doctorserrors.ErrNotFound
		}
		return testDoctor(), nil
	}
	f.patients.findByIDFn = func(_ context.Context, id string) (*model.Patient, error) {
		return testPatient(), nil
	}

	f.svc = NewBookingService(
		f.repo,
		f.ledger,
		f.doctors,
		f.patients,
		f.publisher,
		validator.NewAppointmentValidator(cfg.Log),
		cfg,
	)
	return f
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

// --- Booking ---

func TestBookSuccess(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	if appt.ID != testApptID {
		t.Errorf("ID = %q, want %q", appt.ID, testApptID)
	}
	if appt.Amount != 50 {
		t.Errorf("Amount = %v, want doctor's fee 50", appt.Amount)
	}
	if appt.DocData.Name != "Dr. Richard James" || appt.UserData.Name != "Alice Smith" {
		t.Error("snapshots not captured from doctor and patient records")
	}
	if appt.Cancelled || appt.IsCompleted {
		t.Error("new appointment must start active")
	}
	if booked, _ := f.ledger.IsBooked(context.Background(), testDoctorID, testDateKey, testSlotTime); !booked {
		t.Error("slot not held in ledger after booking")
	}
	if f.publisher.booked != 1 {
		t.Errorf("booked events = %d, want 1", f.publisher.booked)
	}
}

func TestBookValidatesRequest(t *testing.T) {
	f := newFixture(t)

	bad := []*model.BookAppointmentRequest{
		{DocID: "", SlotDate: testDateKey, SlotTime: testSlotTime},
		{DocID: "not-an-oid", SlotDate: testDateKey, SlotTime: testSlotTime},
		{DocID: testDoctorID, SlotDate: "2026-09-15", SlotTime: testSlotTime},
		{DocID: testDoctorID, SlotDate: testDateKey, SlotTime: "10:15"},
		{DocID: testDoctorID, SlotDate: testDateKey, SlotTime: "25:00"},
	}
	for _, req := range bad {
		_, err := f.svc.Book(context.Background(), testPatientID, req)
		wantCode(t, err, apperrors.CodeValidation)
	}
}

func TestBookDoctorNotFound(t *testing.T) {
	f := newFixture(t)
	req := bookRequest()
	req.DocID = "665f1f77bcf86cd799439099"

	_, err := f.svc.Book(context.Background(), testPatientID, req)
	wantCode(t, err, apperrors.CodeNotFound)
}

func TestBookDoctorUnavailable(t *testing.T) {
	f := newFixture(t)
	f.doctors.findByIDFn = func(context.Context, string) (*model.Doctor, error) {
		d := testDoctor()
		d.Available = false
		return d, nil
	}

	_, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
	wantCode(t, err, apperrors.CodeDoctorUnavailable)
}

func TestBookSlotTaken(t *testing.T) {
	f := newFixture(t)
	if err := f.ledger.Reserve(context.Background(), testDoctorID, testDateKey, testSlotTime); err != nil {
		t.Fatalf("seeding ledger: %v", err)
	}

	_, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
	wantCode(t, err, apperrors.CodeSlotTaken)
	if f.publisher.booked != 0 {
		t.Error("no event should be published for a failed booking")
	}
}

func TestBookStaleDoctorViewSlotTaken(t *testing.T) {
	f := newFixture(t)
	f.doctors.findByIDFn = func(context.Context, string) (*model.Doctor, error) {
		d := testDoctor()
		d.SlotsBooked = map[string][]string{testDateKey: {testSlotTime}}
		return d, nil
	}

	_, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
	wantCode(t, err, apperrors.CodeSlotTaken)
}

func TestBookInsertFailureReleasesSlot(t *testing.T) {
	f := newFixture(t)
	f.repo.insertFn = func(context.Context, *model.Appointment) error {
		return errors.New("write failed")
	}

	_, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
	wantCode(t, err, apperrors.CodeInternal)

	if booked, _ := f.ledger.IsBooked(context.Background(), testDoctorID, testDateKey, testSlotTime); booked {
		t.Error("slot still held after failed insert, rollback did not run")
	}
}

func TestBookInsertAndRollbackFailureIsReconciliation(t *testing.T) {
	f := newFixture(t)
	f.repo.insertFn = func(context.Context, *model.Appointment) error {
		return errors.New("write failed")
	}
	f.ledger.releaseErr = errors.New("release failed")

	_, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
	wantCode(t, err, apperrors.CodeReconciliation)
}

func TestBookTimeoutIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.ledger.reserveErr = context.DeadlineExceeded

	_, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
	wantCode(t, err, apperrors.CodeUnavailable)
}

func TestBookConcurrentSameSlotExactlyOneWins(t *testing.T) {
	f := newFixture(t)

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var won, lost int

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case apperrors.IsCode(err, apperrors.CodeSlotTaken):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}
	if lost != attempts-1 {
		t.Errorf("losers = %d, want %d", lost, attempts-1)
	}
}

func TestBookAfterCancelSucceeds(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Book(context.Background(), testPatientID, bookRequest())
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	f.repo.findByIDFn = func(context.Context, string) (*model.Appointment, error) {
		cp := *first
		return &cp, nil
	}
	f.repo.markCancelledFn = func(context.Context, string, string, time.Time) error {
		return nil
	}
	if _, err := f.svc.CancelByPatient(context.Background(), testPatientID, first.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := f.svc.Book(context.Background(), testPatientID, bookRequest()); err != nil {
		t.Fatalf("rebooking a released slot failed: %v", err)
	}
}

// --- Cancellation ---

func activeAppointment() *model.Appointment {
	return &model.Appointment{
		ID:       testApptID,
		UserID:   testPatientID,
		DocID:    testDoctorID,
		SlotDate: testDateKey,
		SlotTime: testSlotTime,
		Amount:   50,
		BookedAt: time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC),
	}
}

func cancellationFixture(t *testing.T, appt *model.Appointment) *fixture {
	t.Helper()
	f := newFixture(t)
	f.repo.findByIDFn = func(_ context.Context, id string) (*model.Appointment, error) {
		if id != appt.ID {
			return nil, appointmentserrors.ErrNotFound
		}
		cp := *appt
		return &cp, nil
	}
	f.repo.markCancelledFn = func(context.Context, string, string, time.Time) error {
		return nil
	}
	f.repo.markCompletedFn = func(context.Context, string, string, time.Time) error {
		return nil
	}
	return f
}

func TestCancelByPatientReleasesSlot(t *testing.T) {
	appt := activeAppointment()
	f := cancellationFixture(t, appt)
	if err := f.ledger.Reserve(context.Background(), testDoctorID, testDateKey, testSlotTime); err != nil {
		t.Fatalf("seeding ledger: %v", err)
	}

	cancelled, err := f.svc.CancelByPatient(context.Background(), testPatientID, testApptID)
	if err != nil {
		t.Fatalf("CancelByPatient returned error: %v", err)
	}

	if !cancelled.Cancelled || cancelled.CancelledAt == nil {
		t.Error("cancellation metadata not set")
	}
	if cancelled.CancellationReason != "Cancelled by patient" {
		t.Errorf("reason = %q, want Cancelled by patient", cancelled.CancellationReason)
	}
	if booked, _ := f.ledger.IsBooked(context.Background(), testDoctorID, testDateKey, testSlotTime); booked {
		t.Error("slot still held after cancellation")
	}
	if f.publisher.cancelled != 1 {
		t.Errorf("cancelled events = %d, want 1", f.publisher.cancelled)
	}
}

func TestCancelByPatientRejectsForeignAppointment(t *testing.T) {
	appt := activeAppointment()
	f := cancellationFixture(t, appt)

	_, err := f.svc.CancelByPatient(context.Background(), "665f1f77bcf86cd799439055", testApptID)
	wantCode(t, err, apperrors.CodeForbidden)
}

func TestCancelByDoctorDefaultReason(t *testing.T) {
	appt := activeAppointment()
	f := cancellationFixture(t, appt)

	cancelled, err := f.svc.CancelByDoctor(context.Background(), testDoctorID, testApptID, "")
	if err != nil {
		t.Fatalf("CancelByDoctor returned error: %v", err)
	}
	if cancelled.CancellationReason != "Cancelled by doctor" {
		t.Errorf("reason = %q, want the default doctor reason", cancelled.CancellationReason)
	}
}

func TestCancelByDoctorCustomReason(t *testing.T) {
	appt := activeAppointment()
	f := cancellationFixture(t, appt)

	cancelled, err := f.svc.CancelByDoctor(context.Background(), testDoctorID, testApptID, "Family emergency")
	if err != nil {
		t.Fatalf("CancelByDoctor returned error: %v", err)
	}
	if cancelled.CancellationReason != "Family emergency" {
		t.Errorf("reason = %q, want Family emergency", cancelled.CancellationReason)
	}
}

func TestCancelByAdminFixedReason(t *testing.T) {
	appt := activeAppointment()
	f := cancellationFixture(t, appt)

	cancelled, err := f.svc.CancelByAdmin(context.Background(), testApptID)
	if err != nil {
		t.Fatalf("CancelByAdmin returned error: %v", err)
	}
	if cancelled.CancellationReason != "Cancelled by admin" {
		t.Errorf("reason = %q, want Cancelled by admin", cancelled.CancellationReason)
	}
}

func TestCancelAlreadyCancelled(t *testing.T) {
	appt := activeAppointment()
	appt.Cancelled = true
	f := cancellationFixture(t, appt)

	_, err := f.svc.CancelByPatient(context.Background(), testPatientID, testApptID)
	wantCode(t, err, apperrors.CodeAlreadyCancelled)
	if f.publisher.cancelled != 0 {
		t.Error("no event should be published for a rejected cancel")
	}
}

func TestCancelCompletedAppointment(t *testing.T) {
	appt := activeAppointment()
	appt.IsCompleted = true
	f := cancellationFixture(t, appt)

	_, err := f.svc.CancelByPatient(context.Background(), testPatientID, testApptID)
	wantCode(t, err, apperrors.CodeCannotCancelCompleted)
}

func TestCancelNotFound(t *testing.T) {
	f := cancellationFixture(t, activeAppointment())

	_, err := f.svc.CancelByPatient(context.Background(), testPatientID, "665f1f77bcf86cd799439099")
	wantCode(t, err, apperrors.CodeNotFound)
}

func TestCancelRaceClassifiedFromStore(t *testing.T) {
	appt := activeAppointment()
	f := cancellationFixture(t, appt)
	// The conditional update finds nothing because another writer completed
	// the appointment between our read and the transaction.
	f.repo.markCancelledFn = func(context.Context, string, string, time.Time) error {
		return appointmentserrors.ErrStatusChanged
	}
	done := *appt
	done.IsCompleted = true
	calls := 0
	base := f.repo.findByIDFn
	f.repo.findByIDFn = func(ctx context.Context, id string) (*model.Appointment, error) {
		calls++
		if calls == 1 {
			return base(ctx, id)
		}
		cp := done
		return &cp, nil
	}

	_, err := f.svc.CancelByPatient(context.Background(), testPatientID, testApptID)
	wantCode(t, err, apperrors.CodeCannotCancelCompleted)
}

// --- Completion ---

func TestCompleteSuccess(t *testing.T) {
	appt := activeAppointment()
	f := cancellationFixture(t, appt)

	completed, err := f.svc.Complete(context.Background(), testDoctorID, testApptID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !completed.IsCompleted || completed.CompletedAt == nil {
		t.Error("completion metadata not set")
	}
	if f.publisher.completed != 1 {
		t.Errorf("completed events = %d, want 1", f.publisher.completed)
	}
}

func TestCompleteRejectsForeignDoctor(t *testing.T) {
	appt := activeAppointment()
	f := cancellationFixture(t, appt)

	_, err := f.svc.Complete(context.Background(), "665f1f77bcf86cd799439055", testApptID)
	wantCode(t, err, apperrors.CodeForbidden)
}

func TestCompleteAlreadyCompleted(t *testing.T) {
	appt := activeAppointment()
	appt.IsCompleted = true
	f := cancellationFixture(t, appt)

	_, err := f.svc.Complete(context.Background(), testDoctorID, testApptID)
	wantCode(t, err, apperrors.CodeAlreadyCompleted)
}

func TestCompleteCancelledAppointment(t *testing.T) {
	appt := activeAppointment()
	appt.Cancelled = true
	f := cancellationFixture(t, appt)

	_, err := f.svc.Complete(context.Background(), testDoctorID, testApptID)
	wantCode(t, err, apperrors.CodeConflict)
}

// --- Listings ---

func TestListForPatient(t *testing.T) {
	f := newFixture(t)
	f.repo.findByPatientFn = func(_ context.Context, patientID string) ([]*model.Appointment, error) {
		if patientID != testPatientID {
			t.Errorf("queried patient %q, want %q", patientID, testPatientID)
		}
		return []*model.Appointment{activeAppointment()}, nil
	}

	appts, err := f.svc.ListForPatient(context.Background(), testPatientID)
	if err != nil {
		t.Fatalf("ListForPatient returned error: %v", err)
	}
	if len(appts) != 1 {
		t.Errorf("len = %d, want 1", len(appts))
	}
}

func TestListAll(t *testing.T) {
	f := newFixture(t)
	f.repo.countFn = func(context.Context) (int64, error) { return 7, nil }
	f.repo.findAllFn = func(_ context.Context, limit int, offset int64) ([]*model.Appointment, error) {
		if limit != 5 || offset != 2 {
			t.Errorf("limit/offset = %d/%d, want 5/2", limit, offset)
		}
		return []*model.Appointment{activeAppointment()}, nil
	}

	appts, total, err := f.svc.ListAll(context.Background(), 5, 2)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if total != 7 || len(appts) != 1 {
		t.Errorf("total/len = %d/%d, want 7/1", total, len(appts))
	}
}
