package intake

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors below wrap one of these so callers can
// match either level with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrCapacityExhausted = errors.New("capacity exhausted")
	ErrInvalidState      = errors.New("invalid state")
	ErrDuplicateKey      = errors.New("duplicate key")
)

var (
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrNoRoomAvailable     = fmt.Errorf("no room available: %w", ErrCapacityExhausted)
	ErrNoDoctorAvailable   = fmt.Errorf("no doctor available: %w", ErrCapacityExhausted)
	ErrNoPatientWaiting    = fmt.Errorf("no patient waiting: %w", ErrInvalidState)
	ErrNotAdmitted         = fmt.Errorf("patient is not admitted: %w", ErrInvalidState)
	ErrNothingToUndo       = fmt.Errorf("nothing to undo: %w", ErrInvalidState)
	ErrInvalidTime         = fmt.Errorf("appointment must be at least the lead time in the future: %w", ErrValidation)
	ErrInvalidRoomCategory = fmt.Errorf("unknown room category: %w", ErrValidation)
)
