package validator

import (
	"io"
	"testing"

	"docbook/pkg/logger"
	"docbook/pkg/model"
)

func testValidator() *AppointmentValidator {
	return NewAppointmentValidator(logger.New(logger.Config{
		Level:  logger.ERROR,
		Format: logger.TEXT,
		Output: io.Discard,
	}))
}

func TestValidateBookingAccepts(t *testing.T) {
	v := testValidator()
	req := &model.BookAppointmentRequest{
		DocID:    "665f1f77bcf86cd799439011",
		SlotDate: "05_01_2026",
		SlotTime: "10:30",
	}
	if err := v.ValidateBooking(req); err != nil {
		t.Errorf("ValidateBooking rejected a valid request: %v", err)
	}
}

func TestValidateBookingRejects(t *testing.T) {
	tests := []struct {
		name string
		req  model.BookAppointmentRequest
	}{
		{"missing doc id", model.BookAppointmentRequest{SlotDate: "05_01_2026", SlotTime: "10:30"}},
		{"bad object id", model.BookAppointmentRequest{DocID: "zzz", SlotDate: "05_01_2026", SlotTime: "10:30"}},
		{"iso date", model.BookAppointmentRequest{DocID: "665f1f77bcf86cd799439011", SlotDate: "2026-01-05", SlotTime: "10:30"}},
		{"impossible date", model.BookAppointmentRequest{DocID: "665f1f77bcf86cd799439011", SlotDate: "31_02_2026", SlotTime: "10:30"}},
		{"quarter hour", model.BookAppointmentRequest{DocID: "665f1f77bcf86cd799439011", SlotDate: "05_01_2026", SlotTime: "10:15"}},
		{"hour out of range", model.BookAppointmentRequest{DocID: "665f1f77bcf86cd799439011", SlotDate: "05_01_2026", SlotTime: "24:00"}},
		{"no leading zero", model.BookAppointmentRequest{DocID: "665f1f77bcf86cd799439011", SlotDate: "05_01_2026", SlotTime: "9:30"}},
	}
	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.ValidateBooking(&tt.req); err == nil {
				t.Error("ValidateBooking accepted an invalid request")
			}
		})
	}
}

func TestValidateCancelReasonLength(t *testing.T) {
	v := testValidator()

	if err := v.ValidateCancel(&model.CancelAppointmentRequest{}); err != nil {
		t.Errorf("empty reason should be allowed: %v", err)
	}
	if err := v.ValidateCancel(&model.CancelAppointmentRequest{Reason: "Family emergency"}); err != nil {
		t.Errorf("short reason should be allowed: %v", err)
	}

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	if err := v.ValidateCancel(&model.CancelAppointmentRequest{Reason: string(long)}); err == nil {
		t.Error("reason over 500 chars should be rejected")
	}
}
