package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/statusboard/internal/persistence"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrStoreFailure is returned when a store read or write fails.
	ErrStoreFailure = errors.New("application: store failure")
	// ErrSessionInProgress is returned by the reject start policy when the
	// slot already has an open session.
	ErrSessionInProgress = errors.New("application: session already in progress")
	// ErrRecordCanceled is returned when a signal targets a canceled record.
	ErrRecordCanceled = errors.New("application: record canceled")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
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

// mapStoreError translates repository errors at the service boundary.
func mapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrStoreFailure):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreFailure, err)
}
