package model

import "time"

// DoctorSnapshot and PatientSnapshot are copies of doctor/patient data taken
// at booking time. They are a historical record: later profile edits must not
// change what an existing appointment shows.
type DoctorSnapshot struct {
	ID         string  `json:"id" bson:"id"`
	Name       string  `json:"name" bson:"name"`
	Speciality string  `json:"speciality" bson:"speciality"`
	Degree     string  `json:"degree" bson:"degree"`
	Experience string  `json:"experience" bson:"experience"`
	Fees       float64 `json:"fees" bson:"fees"`
	Image      string  `json:"image" bson:"image"`
	Address    Address `json:"address" bson:"address"`
}

type PatientSnapshot struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Email       string `json:"email" bson:"email"`
	Phone       string `json:"phone" bson:"phone"`
	Image       string `json:"image" bson:"image"`
	DateOfBirth string `json:"date_of_birth" bson:"date_of_birth"`
}

// Appointment is the appointments collection document. UserID and DocID never
// change after creation. Cancelled and IsCompleted are mutually exclusive;
// once either is set the record is frozen apart from the matching metadata
// written in the same update. Appointments are never physically deleted.
type Appointment struct {
	ID     string `json:"id,omitempty" bson:"_id,omitempty"`
	UserID string `json:"user_id" bson:"user_id"`
	DocID  string `json:"doc_id" bson:"doc_id"`

	SlotDate string `json:"slot_date" bson:"slot_date"`
	SlotTime string `json:"slot_time" bson:"slot_time"`

	UserData PatientSnapshot `json:"user_data" bson:"user_data"`
	DocData  DoctorSnapshot  `json:"doc_data" bson:"doc_data"`

	// Amount is the doctor's fee captured at booking time.
	Amount float64 `json:"amount" bson:"amount"`

	BookedAt time.Time `json:"booked_at" bson:"booked_at"`

	Cancelled          bool       `json:"cancelled" bson:"cancelled"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`

	IsCompleted bool       `json:"is_completed" bson:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Active reports whether the appointment is neither cancelled nor completed.
func (a *Appointment) Active() bool {
	return !a.Cancelled && !a.IsCompleted
}

type BookAppointmentRequest struct {
	DocID    string `json:"doc_id" validate:"required,mongodb"`
	SlotDate string `json:"slot_date" validate:"required,datekey"`
	SlotTime string `json:"slot_time" validate:"required,slottime"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
