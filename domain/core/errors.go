package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound           = errors.New("resource not found")
	ErrDatasetNotFound    = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrInsufficientData   = errors.New("insufficient data")
	ErrInconsistentSchema = errors.New("inconsistent schema")
	ErrUpstreamQuery      = errors.New("upstream query failed")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInvalidParameterError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParameter, field, reason)
}

func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

func NewInconsistentSchemaError(index, got, want int) error {
	return fmt.Errorf("%w: observation %d has %d features, expected %d", ErrInconsistentSchema, index, got, want)
}

// UpstreamError carries the failure reported by the analytics engine.
type UpstreamError struct {
	Status  int
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", ErrUpstreamQuery, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrUpstreamQuery, msg)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUpstreamQuery, e.Cause}
	}
	return []error{ErrUpstreamQuery}
}

// IsUpstreamError reports whether err came from the analytics engine.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamQuery)
}
