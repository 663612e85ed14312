package events

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/spoke-d/dispatchd/internal/clock"
)

// Event types a listener can subscribe to.
const (
	TypeJob     = "job"
	TypeService = "service"
	TypeHost    = "host"
	TypeLogging = "logging"
)

// Broadcaster fans an encoded event out to the connected listeners.
type Broadcaster interface {
	Dispatch(map[string]interface{}) error
}

// Sender is what registry components use to publish lifecycle changes.
type Sender interface {
	Send(eventType, action string, metadata interface{})
}

// Hub stamps lifecycle events and hands them to the broadcaster. Delivery
// is best effort, a failing broadcast is logged and dropped.
type Hub struct {
	broadcaster Broadcaster
	clock       clock.Clock
	logger      log.Logger
}

// New creates a Hub with sane defaults
func New(broadcaster Broadcaster, options ...Option) *Hub {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Hub{
		broadcaster: broadcaster,
		clock:       opts.clock,
		logger:      opts.logger,
	}
}

// Send an event of the given type, for example a "job" event with the
// "job-created" action.
func (h *Hub) Send(eventType, action string, metadata interface{}) {
	event := map[string]interface{}{
		"type":      eventType,
		"action":    action,
		"timestamp": h.clock.UTC(),
		"metadata":  metadata,
	}
	if err := h.broadcaster.Dispatch(event); err != nil {
		level.Warn(h.logger).Log("msg", "Failed to dispatch event", "type", eventType, "action", action, "err", err)
	}
}

// Nop discards every event.
type Nop struct{}

// Send does nothing.
func (Nop) Send(string, string, interface{}) {}
