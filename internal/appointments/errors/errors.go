package errors

import "errors"

var (
	ErrNotFound      = errors.New("appointment not found")
	ErrInvalidID     = errors.New("invalid appointment ID format")
	ErrSlotTaken     = errors.New("slot already booked")
	ErrStatusChanged = errors.New("appointment status changed concurrently")
)
