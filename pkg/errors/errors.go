package errors

import (
	"errors"
	"fmt"
)

var (
	ErrFetchFailed  = errors.New("resource fetch failed")
	ErrNoFetcher    = errors.New("no fetcher configured")
	ErrInvalidInput = errors.New("invalid input")
	ErrTimeout      = errors.New("operation timed out")
	ErrInternal     = errors.New("internal error")
)

// AppError pairs a sentinel with operation context so callers can both
// errors.Is against the sentinel and read what was being attempted. Cause,
// when set, keeps the underlying error in the chain, so errors.Is also
// reaches causes like context.DeadlineExceeded.
type AppError struct {
	Err     error
	Op      string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	msg := e.Err.Error() + ": " + e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func New(sentinel error, op string, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: message,
	}
}

func Newf(sentinel error, op string, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap builds an AppError that keeps cause in the unwrap chain.
func Wrap(sentinel error, op string, cause error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// Is reports whether any error in err's chain matches target. Re-exported so
// callers need not import both this package and the standard library one.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
