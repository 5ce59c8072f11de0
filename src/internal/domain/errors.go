package domain

import (
	"errors"
	"fmt"
)

var ErrRecordNotFound = errors.New("Record not found")

// ErrBalanceAdjustmentMismatch is returned when a balance batch touched fewer rows than accounts.
// It aborts the whole attempt and nothing is recorded.
var ErrBalanceAdjustmentMismatch = errors.New("at least one account hasn't been updated")

// ValidationError is a caller-input rejection raised before any mutating attempt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindValidation
	ErrorKindNotFound
	ErrorKindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindValidation:
		return "validation"
	case ErrorKindNotFound:
		return "not_found"
	default:
		return "fatal"
	}
}

// Classify tells callers which of the three error kinds err belongs to.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ErrorKindValidation
	}
	if errors.Is(err, ErrRecordNotFound) {
		return ErrorKindNotFound
	}
	return ErrorKindFatal
}
