// Package apperrors defines the domain error taxonomy shared across the
// feature pipeline, registry, training and forecast components. Errors are
// surfaced to callers verbatim; there is no silent fallback to a stale model.
package apperrors

import (
	"errors"
	"fmt"
)

// DataInsufficientError indicates there is not enough usable history to build
// features or train a model. It is surfaced, never retried automatically.
type DataInsufficientError struct {
	Rows    int
	Minimum int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("insufficient data: %d valid rows, minimum %d required", e.Rows, e.Minimum)
}

// NotFoundError indicates an unknown model version or an empty registry.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// InvalidRangeError indicates a bad horizon or date input on a forecast
// request.
type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return "invalid range: " + e.Reason
}

// ModelLoadError indicates a model artifact is missing or corrupt. Fatal for
// the request that needed the model.
type ModelLoadError struct {
	Location string
	Err      error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model artifact %q: %v", e.Location, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// UpstreamFitError indicates the external fit capability failed. Training is
// aborted and the registry is left untouched.
type UpstreamFitError struct {
	Err error
}

func (e *UpstreamFitError) Error() string {
	return fmt.Sprintf("upstream fit failed: %v", e.Err)
}

func (e *UpstreamFitError) Unwrap() error { return e.Err }

// IsDataInsufficient reports whether err is a DataInsufficientError.
func IsDataInsufficient(err error) bool {
	var target *DataInsufficientError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsInvalidRange reports whether err is an InvalidRangeError.
func IsInvalidRange(err error) bool {
	var target *InvalidRangeError
	return errors.As(err, &target)
}

// IsModelLoad reports whether err is a ModelLoadError.
func IsModelLoad(err error) bool {
	var target *ModelLoadError
	return errors.As(err, &target)
}

// IsUpstreamFit reports whether err is an UpstreamFitError.
func IsUpstreamFit(err error) bool {
	var target *UpstreamFitError
	return errors.As(err, &target)
}
