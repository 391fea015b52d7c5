package services

import (
	"errors"
	"fmt"

	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/statemachine"
)

// Common service errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("access denied")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrDuplicate       = errors.New("duplicate record")
	ErrValidation      = errors.New("validation failed")
	ErrPrecondition    = errors.New("precondition failed")
)

// validationf wraps ErrValidation with a formatted message
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// preconditionf wraps ErrPrecondition with a formatted message
func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// translate maps repository and state machine errors onto service sentinels
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case repository.IsNotFound(err):
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	case repository.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", ErrDuplicate, entity)
	case errors.Is(err, statemachine.ErrTransition):
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return err
}
