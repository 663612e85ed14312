package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// Service is a REST resource mounted under /1.0/<Name>. Every method maps
// onto the HTTP verb of the same name.
type Service interface {
	Get(context.Context, *http.Request) Response
	Put(context.Context, *http.Request) Response
	Post(context.Context, *http.Request) Response
	Delete(context.Context, *http.Request) Response
	Patch(context.Context, *http.Request) Response

	// Name is the path of the resource, relative to the API version. It may
	// hold gorilla/mux path variables.
	Name() string
}

// DefaultService answers every verb with 501. Services embed it and
// override the verbs they support.
type DefaultService struct{}

// Get is not implemented.
func (DefaultService) Get(context.Context, *http.Request) Response { return NotImplemented(nil) }

// Put is not implemented.
func (DefaultService) Put(context.Context, *http.Request) Response { return NotImplemented(nil) }

// Post is not implemented.
func (DefaultService) Post(context.Context, *http.Request) Response { return NotImplemented(nil) }

// Delete is not implemented.
func (DefaultService) Delete(context.Context, *http.Request) Response { return NotImplemented(nil) }

// Patch is not implemented.
func (DefaultService) Patch(context.Context, *http.Request) Response { return NotImplemented(nil) }

// ContextKey namespaces the values the router stores in a request context.
type ContextKey string

// DaemonKey holds the Daemon serving a request.
const DaemonKey ContextKey = "daemon"

// GetDaemon returns the Daemon serving the request behind ctx.
func GetDaemon(ctx context.Context) (Daemon, error) {
	d, ok := ctx.Value(DaemonKey).(Daemon)
	if !ok {
		return nil, errors.New("daemon not found")
	}
	return d, nil
}
