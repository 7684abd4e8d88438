package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoClips is returned by composition when zero scene clips were produced.
var ErrNoClips = errors.New("composition: no scene clips to concatenate")

// ProviderError wraps any capability-provider failure (network, quota,
// malformed response). Op names the provider call that failed.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SchemaValidationError is returned when a provider's structured output
// is missing or mistypes an expected field.
type SchemaValidationError struct {
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation: field %q %s", e.Field, e.Reason)
}

// UnsupportedFormatError is returned by the document parser for
// unrecognized file extensions.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format: %q", e.Format)
}

// CompositionError is returned when the composition stage cannot
// produce a renderable output.
type CompositionError struct {
	Err error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("composition failed: %v", e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// StageError attributes a failure to the pipeline stage that raised it.
// The coordinator converts it into a failed job; it never propagates to
// the caller of StartJob.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
