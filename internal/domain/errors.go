package domain

import "errors"

// ValidationError is returned when an export request is rejected before a
// job record is created. The message is safe to show to the user.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a ValidationError with the given reason.
// Parameters:
//   - reason: user-facing explanation of the rejection.
// Returns:
//   - *ValidationError: the error value.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	// ErrNoEntitiesSelected is returned by the validation gate when the
	// request selects no entity kinds. No job is created in this case.
	ErrNoEntitiesSelected = NewValidationError("Please select at least one data type to export")

	// ErrJobNotFound is returned when the referenced job id does not exist.
	ErrJobNotFound = errors.New("export job not found")

	// ErrJobNotReady is returned when a download is requested for a job
	// that has not completed or has no artifact.
	ErrJobNotReady = errors.New("export job has no downloadable artifact")

	// ErrJobFinished is returned when cancelling a job that is already in
	// a terminal state.
	ErrJobFinished = errors.New("export job already finished")
)
