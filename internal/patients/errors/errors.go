package errors

import "errors"

var (
	ErrNotFound   = errors.New("patient not found")
	ErrInvalidID  = errors.New("invalid patient ID format")
	ErrEmailTaken = errors.New("patient email already registered")
)
