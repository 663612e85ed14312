package registry

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
)

// NotFoundError is returned when a host, service or job does not exist.
type NotFoundError struct {
	msg string
}

func (e NotFoundError) Error() string { return e.msg }

// IllegalStateError is returned when an operation conflicts with the
// current state, such as storing an incident for an unknown job.
type IllegalStateError struct {
	msg string
}

func (e IllegalStateError) Error() string { return e.msg }

// IllegalArgumentError is returned for blank or malformed input.
type IllegalArgumentError struct {
	msg string
}

func (e IllegalArgumentError) Error() string { return e.msg }

// ServiceRegistryError wraps an infrastructure failure.
type ServiceRegistryError struct {
	err error
}

func (e ServiceRegistryError) Error() string {
	return fmt.Sprintf("service registry: %v", e.err)
}

// Unwrap returns the underlying failure.
func (e ServiceRegistryError) Unwrap() error { return e.err }

// NotFound creates a NotFoundError.
func NotFound(format string, args ...interface{}) error {
	return errors.WithStack(NotFoundError{msg: fmt.Sprintf(format, args...)})
}

// IllegalState creates an IllegalStateError.
func IllegalState(format string, args ...interface{}) error {
	return errors.WithStack(IllegalStateError{msg: fmt.Sprintf(format, args...)})
}

// IllegalArgument creates an IllegalArgumentError.
func IllegalArgument(format string, args ...interface{}) error {
	return errors.WithStack(IllegalArgumentError{msg: fmt.Sprintf(format, args...)})
}

// Failure wraps err into a ServiceRegistryError unless it already belongs
// to the taxonomy.
func Failure(err error) error {
	if err == nil {
		return nil
	}
	switch errors.Cause(err).(type) {
	case NotFoundError, IllegalStateError, IllegalArgumentError, ServiceRegistryError:
		return err
	}
	if errors.Cause(err) == db.ErrNoSuchObject {
		return errors.WithStack(NotFoundError{msg: err.Error()})
	}
	return errors.WithStack(ServiceRegistryError{err: err})
}

// IsNotFound reports whether err is a NotFoundError or a missing database
// object.
func IsNotFound(err error) bool {
	cause := errors.Cause(err)
	if cause == db.ErrNoSuchObject {
		return true
	}
	_, ok := cause.(NotFoundError)
	return ok
}

// IsIllegalState reports whether err is an IllegalStateError.
func IsIllegalState(err error) bool {
	_, ok := errors.Cause(err).(IllegalStateError)
	return ok
}

// IsIllegalArgument reports whether err is an IllegalArgumentError.
func IsIllegalArgument(err error) bool {
	_, ok := errors.Cause(err).(IllegalArgumentError)
	return ok
}

// IsServiceRegistryError reports whether err is an infrastructure failure.
func IsServiceRegistryError(err error) bool {
	_, ok := errors.Cause(err).(ServiceRegistryError)
	return ok
}
