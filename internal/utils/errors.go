package utils

import (
	"errors"

	"github.com/lumenave/visitor-pass-service/internal/models"
)

/*
   Sentinel errors for pass domain logic.
   Callers match with: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	ErrInvalidCode            = errors.New("invalid_code")
	ErrExpired                = errors.New("expired")
	ErrNotYetValid            = errors.New("not_yet_valid")
	ErrDuplicateCode          = errors.New("duplicate_code")
	ErrDuplicateCodeExhausted = errors.New("duplicate_code_exhausted")
	ErrTransientStore         = errors.New("transient_store_failure")
	ErrPassImmutable          = errors.New("pass_immutable")
	ErrResidentNotFound       = errors.New("resident_not_found")
	ErrInvalidWindow          = errors.New("invalid_window")
)

/*
   PassNotActiveError is returned when a pass is presented but its status is
   already terminal. It carries the terminal status so the caller can render
   the specific outcome ("already used", "expired", ...) instead of a generic
   failure.
*/
type PassNotActiveError struct {
	Status models.PassStatus
}

func (e *PassNotActiveError) Error() string {
	return "pass_not_active:" + string(e.Status)
}

func NewPassNotActiveError(status models.PassStatus) error {
	return &PassNotActiveError{Status: status}
}
