// Package events carries registry events over websockets: the server side
// broadcasts them to connected actors and the client side reads them back.
package events

import (
	"encoding/json"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Actor is one connected event consumer.
type Actor interface {
	ID() string
	// Types are the event types the actor subscribed to.
	Types() []string
	Write([]byte) error
	Close()
	Done() bool
}

// ActorGroup tracks the connected actors.
type ActorGroup interface {
	Add(Actor)
	// Prune drops actors that are done.
	Prune() bool
	Walk(func(Actor) error) error
}

// EventBroadcaster fans events out to an ActorGroup.
type EventBroadcaster struct {
	actorGroup ActorGroup
	logger     log.Logger
}

// NewEventBroadcaster creates an EventBroadcaster over actorGroup.
func NewEventBroadcaster(actorGroup ActorGroup, logger log.Logger) *EventBroadcaster {
	return &EventBroadcaster{
		actorGroup: actorGroup,
		logger:     logger,
	}
}

// Dispatch sends event to every actor subscribed to its type. Writes happen
// in the background; an actor failing a write is closed.
func (e *EventBroadcaster) Dispatch(event map[string]interface{}) error {
	eventType, ok := event["type"].(string)
	if !ok {
		return errors.New("event has no type")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	e.actorGroup.Prune()
	return e.actorGroup.Walk(func(actor Actor) error {
		if contains(actor.Types(), eventType) {
			go e.write(actor, body)
		}
		return nil
	})
}

func (e *EventBroadcaster) write(actor Actor, body []byte) {
	if err := actor.Write(body); err != nil {
		actor.Close()
		level.Debug(e.logger).Log("msg", "Disconnected actor", "id", actor.ID(), "err", err)
	}
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
