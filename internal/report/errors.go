package report

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPeriod is returned for a period other than daily, weekly or monthly
	ErrUnknownPeriod = errors.New("unknown report period")
	// ErrUnknownFormat is returned for an output format that has no renderer
	ErrUnknownFormat = errors.New("unknown report format")
)

// InvalidDateError means a task date could not be read as a calendar date.
// It aborts the whole report; no partial output is produced.
type InvalidDateError struct {
	TaskID string
	Field  string
	Value  string
	Err    error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("task %s: invalid %s %q: %v", e.TaskID, e.Field, e.Value, e.Err)
}

func (e *InvalidDateError) Unwrap() error {
	return e.Err
}

// EncodingError means a renderer failed to serialize the report
type EncodingError struct {
	Format Format
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode %s report: %v", e.Format, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
