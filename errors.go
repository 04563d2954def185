package vgrid

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumn is returned when two column definitions share an id.
	ErrDuplicateColumn = errors.New("duplicate column id")
	// ErrEmptyColumnID is returned when a column definition has no id.
	ErrEmptyColumnID = errors.New("empty column id")
	// ErrNoColumns is returned when a column set is built from nothing.
	ErrNoColumns = errors.New("no columns defined")
	// ErrMissingValue is reported by accessors that find nothing at their path.
	ErrMissingValue = errors.New("missing value")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid grid config")
	// ErrWorkerClosed is returned by Worker.Wait once the worker is closed.
	ErrWorkerClosed = errors.New("worker closed")
)

// AccessorError records an accessor failure for a single record/column pair.
// The pipeline treats the value as missing and keeps going.
type AccessorError struct {
	ColumnID string
	RowIndex int
	Err      error
}

// Error returns a textual representation of this AccessorError
func (e *AccessorError) Error() string {
	return fmt.Sprintf("accessor for column %q failed on row %d: %v", e.ColumnID, e.RowIndex, e.Err)
}

func (e *AccessorError) Unwrap() error { return e.Err }
