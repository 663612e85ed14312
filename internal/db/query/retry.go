package query

import (
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/retrier"
)

// Retry runs f again while it fails with a transient sqlite error, such as
// a locked database. Transactions are the usual f.
func Retry(sleeper clock.Sleeper, f func() error) error {
	var err error
	retrier.New(sleeper, 10, 250*time.Millisecond).Run(func() error {
		err = f()
		if IsRetriableError(err) {
			return err
		}
		return nil
	})
	return errors.WithStack(err)
}

// IsRetriableError returns true if the given error might be transient and the
// interaction can be safely retried.
func IsRetriableError(err error) bool {
	err = errors.Cause(err)

	if err == nil {
		return false
	}
	switch e := err.(type) {
	case sqlite3.ErrNo:
		if e == sqlite3.ErrLocked || e == sqlite3.ErrBusy {
			return true
		}
	case sqlite3.Error:
		if e.Code == sqlite3.ErrLocked || e.Code == sqlite3.ErrBusy {
			return true
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "database is locked") {
		return true
	}
	if strings.Contains(msg, "bad connection") {
		return true
	}
	return false
}
