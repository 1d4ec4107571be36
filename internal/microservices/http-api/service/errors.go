package service

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/repository"
)

var (
	ErrNotFound            = repository.ErrNotFound
	ErrUnauthenticated     = errors.New("authentication credentials were not provided")
	ErrForbidden           = errors.New("you do not have permission to perform this action")
	ErrConflict            = errors.New("conflict")
	ErrDuplicateReview     = fmt.Errorf("%w: you have already reviewed this title", ErrConflict)
	ErrInvalidConfirmation = errors.New("invalid username or confirmation code")
)

// ValidationError reports rejected input, keyed by field name.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

// invalid converts the result of a DTO Validate call into a *ValidationError.
// Internal validator failures are passed through untouched.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return &ValidationError{Fields: validation.Errors{"non_field_errors": err}}
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: validation.Errors{field: errors.New(msg)}}
}

// RoleChangeError rejects a role change by an actor without admin privilege.
// It carries the unmodified profile so it can be returned to the caller.
type RoleChangeError struct {
	Profile dto.UserResponse
}

func (e *RoleChangeError) Error() string {
	return "changing the role requires admin privilege"
}

func notFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// lookup rewrites a repository not-found into a resource-specific one.
func lookup(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(resource)
	}
	return err
}
