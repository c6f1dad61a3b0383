package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/attendance-service/internal/repositories"
	"github.com/SAP-F-2025/attendance-service/internal/validator"
)

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrPastDateLocked   = errors.New("attendance for past dates can only be changed by an administrator")
)

// PermissionError explains which action a user was refused
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s may not %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

func NewPermissionError(userID, resource, action, reason string) error {
	return &PermissionError{UserID: userID, Resource: resource, Action: action, Reason: reason}
}

// validationError tags field errors with ErrValidationFailed
func validationError(errs validator.ValidationErrors) error {
	return fmt.Errorf("%w: %w", ErrValidationFailed, errs)
}

// fieldError builds a single-field validation failure
func fieldError(field, message, rule string) error {
	return validationError(validator.ValidationErrors{{Field: field, Message: message, Rule: rule}})
}

func notFound(resource, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

// translateRepoError maps storage sentinels onto service sentinels
func translateRepoError(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return notFound(resource, id)
	case errors.Is(err, repositories.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, resource)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
