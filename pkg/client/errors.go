package client

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error is returned when the registry answers with an error response.
type Error struct {
	Code    int
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status of an error response, or 0 when the
// error did not come from the registry.
func StatusCode(err error) int {
	if e, ok := errors.Cause(err).(Error); ok {
		return e.Code
	}
	return 0
}

// IsNotFound reports whether the registry did not know the requested
// entity.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict reports whether the request was refused because of the
// current state of the entity.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}
