package service

import (
	"errors"
	"fmt"

	"alcyxob/coach-app/internal/repository"
)

// --- Error Definitions shared by the coaching services ---
var (
	ErrAlreadyClient          = errors.New("user is already a client of this trainer")
	ErrInvalidOrConsumedToken = errors.New("invitation token is invalid or already used")
	ErrLastSession            = errors.New("a workout must keep at least one session")
	ErrOwnershipMismatch      = errors.New("resource does not belong to this trainer and client")
	ErrNotFound               = errors.New("resource not found")
	ErrConflict               = errors.New("conflicting concurrent change, retry the request")
	ErrInvalidTransition      = errors.New("invalid workout status transition")
)

// ValidationError reports a rejected input field. Use errors.As to read it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// translate maps repository sentinels to service sentinels and wraps anything
// else with the operation name.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case isServiceError(err):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isServiceError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	for _, sentinel := range []error{
		ErrAlreadyClient, ErrInvalidOrConsumedToken, ErrLastSession, ErrOwnershipMismatch,
		ErrNotFound, ErrConflict, ErrInvalidTransition,
		ErrUserAlreadyExists, ErrAuthenticationFailed, ErrInvalidSetupToken,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
