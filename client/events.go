package client

import (
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/pkg/events"
)

// Events subscribes to the lifecycle events of the registry.
type Events struct {
	client *Client
}

// Listen connects to the event stream. Without types the server defaults
// apply, which leave out the log stream.
func (e *Events) Listen(types ...string) (*events.EventListener, error) {
	stream := events.NewEvents(
		e.client.RawClient(),
		events.WithTypes(types...),
		events.WithLogger(e.client.logger),
	)
	listener, err := stream.GetEvents()
	return listener, errors.WithStack(err)
}
