package actors

import (
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// Actor is a listener that receives encoded events.
type Actor interface {

	// ID returns the unique ID for the actor
	ID() string

	// Types returns the event types the actor subscribes to
	Types() []string

	// Write pushes an encoded event to the actor
	Write([]byte) error

	// Close the actor
	Close()

	// Done reports whether the actor stopped listening.
	Done() bool
}

// Group holds the listeners connected to a daemon. Listeners come and go
// while events are broadcast, so the group never holds a lock across a
// Write.
type Group struct {
	actors *xsync.MapOf[string, Actor]
}

// NewGroup creates an empty Group
func NewGroup() *Group {
	return &Group{
		actors: xsync.NewMapOf[string, Actor](),
	}
}

// Add an actor to the group, replacing any actor with the same ID.
func (g *Group) Add(a Actor) {
	g.actors.Store(a.ID(), a)
}

// Remove an actor from the group
func (g *Group) Remove(a Actor) {
	g.actors.Delete(a.ID())
}

// Len returns the number of actors in the group
func (g *Group) Len() int {
	return g.actors.Size()
}

// Prune removes the actors that are done and reports whether any were
// removed.
func (g *Group) Prune() bool {
	var cleaned bool
	g.actors.Range(func(id string, actor Actor) bool {
		if actor.Done() {
			g.actors.Delete(id)
			cleaned = true
		}
		return true
	})
	return cleaned
}

// Walk calls fn for each actor in no particular order, stopping at the
// first error.
func (g *Group) Walk(fn func(Actor) error) error {
	var err error
	g.actors.Range(func(_ string, actor Actor) bool {
		err = fn(actor)
		return err == nil
	})
	return errors.WithStack(err)
}
