package form

import (
	"errors"
	"fmt"
)

// ErrValidationRunning is returned when Validate or ValidateField is called
// while a validation pass is already in flight. The second call starts no
// work and leaves the field list untouched.
var ErrValidationRunning = errors.New("form: validation already running")

// InvalidError reports a completed validation pass in which at least one
// field failed. The attached report carries every field plus the failing
// subset, in document order.
type InvalidError struct {
	Report *Report
}

func (e *InvalidError) Error() string {
	if e == nil || e.Report == nil {
		return "form: validation failed"
	}
	return fmt.Sprintf("form: %d of %d fields invalid", len(e.Report.Failing), len(e.Report.Fields))
}

// InternalError wraps an unexpected failure raised by a validator function
// itself, as opposed to a value being invalid. The pass still settles; the
// caller is never left hanging.
type InternalError struct {
	Validator string
	Field     string
	Err       error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("form: validator %q on field %q: %v", e.Validator, e.Field, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
