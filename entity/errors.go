package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrBookingStarted     = errors.New("booking has already started")
)

type InvalidTransitionError struct {
	Kind string
	From string
	To   string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Kind, e.From, e.To)
}

type NotEnoughSeatsError struct {
	SeatsAvailable int
	SeatsRequested int
}

func (e NotEnoughSeatsError) Error() string {
	return fmt.Sprintf("not enough seats: seats available %d, seats requested %d", e.SeatsAvailable, e.SeatsRequested)
}

// ValidationError lists the fields that failed a domain rule.
type ValidationError struct {
	Problems []string
}

func NewValidationError(problems ...string) ValidationError {
	return ValidationError{Problems: problems}
}

func (e ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}
