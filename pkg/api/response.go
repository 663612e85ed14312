package api

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/go-kit/kit/log"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/etag"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/internal/registry"
	"github.com/spoke-d/dispatchd/pkg/client"
)

// Response is the result of a service method, rendered onto the wire once
// the method returns.
type Response interface {
	Render(http.ResponseWriter) error
}

// SyncResponse wraps metadata in a sync envelope.
func SyncResponse(success bool, metadata interface{}) Response {
	return &syncResponse{success: success, metadata: metadata}
}

// SyncResponseETag is a SyncResponse that also sets an ETag header computed
// from eTag.
func SyncResponseETag(success bool, metadata interface{}, eTag interface{}) Response {
	return &syncResponse{success: success, metadata: metadata, eTag: eTag}
}

// EmptySyncResponse is a successful SyncResponse with empty metadata.
func EmptySyncResponse() Response {
	return SyncResponse(true, map[string]interface{}{})
}

type syncResponse struct {
	success  bool
	eTag     interface{}
	metadata interface{}
	logger   log.Logger
}

func (r *syncResponse) Render(w http.ResponseWriter) error {
	if r.eTag != nil {
		if hash, err := etag.Hash(r.eTag); err == nil {
			w.Header().Set("ETag", hash)
		}
	}

	status := http.StatusOK
	if !r.success {
		status = http.StatusBadRequest
	}
	return json.Write(w, client.ResponseRaw{
		Type:       client.SyncResponse,
		Status:     http.StatusText(status),
		StatusCode: status,
		Metadata:   r.metadata,
	}, false, r.logger)
}

type errorResponse struct {
	code   int
	msg    string
	logger log.Logger
}

func (r *errorResponse) String() string {
	return r.msg
}

func (r *errorResponse) Render(w http.ResponseWriter) error {
	header := w.Header()
	header.Set("Content-Type", "application/json")
	header.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(r.code)

	return json.Write(w, client.ResponseRaw{
		Type:  client.ErrorResponse,
		Error: r.msg,
		Code:  r.code,
	}, false, r.logger)
}

// errorFor builds an error response for code. A nil err falls back to
// fallback as the message.
func errorFor(code int, err error, fallback string) Response {
	msg := fallback
	if err != nil {
		msg = err.Error()
	}
	return &errorResponse{code: code, msg: msg}
}

// NotImplemented is a 501 response.
func NotImplemented(err error) Response {
	return errorFor(http.StatusNotImplemented, err, "not implemented")
}

// NotFound is a 404 response.
func NotFound(err error) Response {
	return errorFor(http.StatusNotFound, err, "not found")
}

// Forbidden is a 403 response.
func Forbidden(err error) Response {
	return errorFor(http.StatusForbidden, err, "not authorized")
}

// Conflict is a 409 response.
func Conflict(err error) Response {
	return errorFor(http.StatusConflict, err, "already exists")
}

// Unavailable is a 503 response.
func Unavailable(err error) Response {
	return errorFor(http.StatusServiceUnavailable, err, "unavailable")
}

// BadRequest is a 400 response.
func BadRequest(err error) Response {
	return errorFor(http.StatusBadRequest, err, "bad request")
}

// InternalError is a 500 response.
func InternalError(err error) Response {
	return errorFor(http.StatusInternalServerError, err, "internal error")
}

// PreconditionFailed is a 412 response, used when an If-Match header does
// not match the current ETag.
func PreconditionFailed(err error) Response {
	return errorFor(http.StatusPreconditionFailed, err, "precondition failed")
}

// SmartError picks the response matching the kind of err. Registry errors
// map unknown objects to 404, bad input to 400 and conflicting state to 409.
func SmartError(err error) Response {
	switch {
	case err == nil:
		return EmptySyncResponse()
	case registry.IsNotFound(err):
		return NotFound(err)
	case registry.IsIllegalArgument(err):
		return BadRequest(err)
	case registry.IsIllegalState(err):
		return Conflict(err)
	}

	cause := errors.Cause(err)
	switch cause {
	case os.ErrNotExist, sql.ErrNoRows:
		return NotFound(nil)
	case os.ErrPermission:
		return Forbidden(nil)
	case db.ErrAlreadyDefined, db.ErrConflict:
		return Conflict(err)
	}
	if sqliteErr, ok := cause.(sqlite3.Error); ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return Conflict(nil)
	}
	return InternalError(err)
}
