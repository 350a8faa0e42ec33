package events

import (
	"context"
	"time"

	"docbook/pkg/model"
)

const (
	TypeAppointmentBooked    = "appointment.booked"
	TypeAppointmentCancelled = "appointment.cancelled"
	TypeAppointmentCompleted = "appointment.completed"
)

// AppointmentEvent is the payload published for every appointment lifecycle
// transition. Events are keyed by doctor ID so consumers see each doctor's
// transitions in order.
type AppointmentEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	DoctorID      string    `json:"doctor_id"`
	PatientID     string    `json:"patient_id"`
	SlotDate      string    `json:"slot_date"`
	SlotTime      string    `json:"slot_time"`
	Amount        float64   `json:"amount,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher emits appointment lifecycle events. Publishing is best-effort:
// implementations must not make booking or cancellation fail because a broker
// is down.
type Publisher interface {
	AppointmentBooked(ctx context.Context, appt *model.Appointment)
	AppointmentCancelled(ctx context.Context, appt *model.Appointment)
	AppointmentCompleted(ctx context.Context, appt *model.Appointment)
	Close() error
}

// NopPublisher is used when no brokers are configured, and in tests.
type NopPublisher struct{}

func (NopPublisher) AppointmentBooked(context.Context, *model.Appointment)    {}
func (NopPublisher) AppointmentCancelled(context.Context, *model.Appointment) {}
func (NopPublisher) AppointmentCompleted(context.Context, *model.Appointment) {}
func (NopPublisher) Close() error                                             { return nil }
