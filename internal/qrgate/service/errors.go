package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrSelfDeletion        = errors.New("an admin cannot delete their own account")
	ErrSelfDemotion        = errors.New("an admin cannot change their own role")
	ErrRoleNotLoginCapable = errors.New("role cannot open a session")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPersistence         = errors.New("store write failed")
	ErrInvalidTransition   = errors.New("event not allowed in current view")
	ErrForbidden           = errors.New("operation not allowed in current view")

	// ErrValidation is wrapped by every input validation failure.
	ErrValidation = errors.New("validation failed")

	ErrEmptyCode        = fmt.Errorf("%w: qr code is required", ErrValidation)
	ErrNameRequired     = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmailRequired    = fmt.Errorf("%w: email is required", ErrValidation)
	ErrPasswordRequired = fmt.Errorf("%w: password is required", ErrValidation)
	ErrHostRequired     = fmt.Errorf("%w: host is required", ErrValidation)
	ErrMessageRequired  = fmt.Errorf("%w: message is required", ErrValidation)
	ErrInvalidRole      = fmt.Errorf("%w: unknown role", ErrValidation)
)

// persistFailure marks err as a failed durable write for op. The original
// cause stays reachable through errors.Is.
func persistFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
