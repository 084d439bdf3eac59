package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// DatasetID names a stored feature dataset.
type DatasetID ID

// NewDatasetID mints a fresh, time-ordered dataset identifier.
func NewDatasetID() DatasetID { return DatasetID(NewID()) }

func (id DatasetID) String() string { return ID(id).String() }

// ParseDatasetID validates a caller-supplied dataset identifier.
// Identifiers are used as file names by the file store, so anything
// that is not a canonical UUID is rejected.
func ParseDatasetID(s string) (DatasetID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: dataset name cannot be empty", ErrInvalidParameter)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: dataset name %q is not a valid identifier", ErrInvalidParameter, s)
	}
	return DatasetID(parsed.String()), nil
}
