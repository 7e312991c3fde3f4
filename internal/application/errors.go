package application

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrNoHostAvailable is returned when no roster host can take the
	// requested time.
	ErrNoHostAvailable = errors.New("application: no host available")
	// ErrSlotFilled is returned when the requested slot reached capacity
	// before this booking committed.
	ErrSlotFilled = errors.New("application: slot filled")
	// ErrDuplicateBooking is returned when the attendee already holds a
	// booking on the requested slot.
	ErrDuplicateBooking = errors.New("application: duplicate booking")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
