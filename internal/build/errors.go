package build

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes returned by the orchestrator.
const (
	ErrCodeMissingField   errors.ErrorCode = "BUILD_MISSING_FIELD"
	ErrCodeWrongType      errors.ErrorCode = "BUILD_WRONG_FIELD_TYPE"
	ErrCodeNotFound       errors.ErrorCode = "BUILD_NOT_FOUND"
	ErrCodeCircular       errors.ErrorCode = "BUILD_CIRCULAR_DEPENDENCY"
	ErrCodeInterpolation  errors.ErrorCode = "BUILD_INTERPOLATION_FAILED"
	ErrCodeProcessExit    errors.ErrorCode = "BUILD_PROCESS_EXIT"
	ErrCodeLengthMismatch errors.ErrorCode = "BUILD_LENGTH_MISMATCH"
	ErrCodePrivateTarget  errors.ErrorCode = "BUILD_PRIVATE_TARGET"
	ErrCodeInvalidValue   errors.ErrorCode = "BUILD_INVALID_VALUE"
	ErrCodeSystem         errors.ErrorCode = "BUILD_SYSTEM_ERROR"
)

func newError(code errors.ErrorCode, format string, args ...any) *errors.Error {
	return errors.New(code, fmt.Sprintf(format, args...))
}

func missingField(kind, owner, field string) error {
	return newError(ErrCodeMissingField, "%s %q has no field %q", kind, owner, field).
		WithContext(kind, owner).
		WithContext("field", field)
}

func wrongType(kind, owner, field, want string) error {
	return newError(ErrCodeWrongType, "field %q of %s %q must be of type %s", field, kind, owner, want).
		WithContext(kind, owner).
		WithContext("field", field)
}

func processExit(label string, status int) error {
	return newError(ErrCodeProcessExit, "%s exited with status %d", label, status).
		WithContext("status", status)
}

// result folds the outcomes of several steps into the worst one seen.
type result struct {
	status   int
	err      error
	circular bool
}

// fold records a step outcome. A step failing without a process status
// counts as status 1.
func (r *result) fold(status int, err error) {
	if err != nil && status == 0 {
		status = 1
	}
	if err != nil && errors.HasCode(err, ErrCodeCircular) {
		r.circular = true
	}
	if status > r.status {
		r.status = status
		r.err = err
		return
	}
	if r.err == nil {
		r.err = err
	}
}

func (r *result) failed() bool { return r.status != 0 }

// stop reports whether the remaining steps must be skipped. Circular
// dependencies stop a build even when failures are ignored.
func (r *result) stop(ignoreFailures bool) bool {
	return r.failed() && (!ignoreFailures || r.circular)
}

func (r *result) unwrap() (int, error) { return r.status, r.err }
