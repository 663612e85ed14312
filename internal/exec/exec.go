// Package exec runs a set of blocking actors until the first one returns.
package exec

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
)

type actor struct {
	run       func() error
	interrupt func(error)
}

// Group runs actors concurrently. The zero value is ready to use.
type Group struct {
	actors []actor
}

// NewGroup creates an empty Group.
func NewGroup() *Group {
	return new(Group)
}

// Add an actor. interrupt must make run return, and may be called after run
// has already returned.
func (g *Group) Add(run func() error, interrupt func(error)) {
	g.actors = append(g.actors, actor{run: run, interrupt: interrupt})
}

// Run starts every actor and waits for the first one to return. Its error
// is handed to every interrupt, and returned once all actors are done.
func (g *Group) Run() error {
	if len(g.actors) == 0 {
		return nil
	}

	results := make(chan error, len(g.actors))
	for _, a := range g.actors {
		go func(run func() error) {
			results <- run()
		}(a.run)
	}

	err := <-results
	for _, a := range g.actors {
		a.interrupt(err)
	}
	for range g.actors[1:] {
		<-results
	}
	return err
}

// Block adds an actor that only returns when interrupted.
func Block(g *Group) {
	done := make(chan struct{})
	g.Add(func() error {
		<-done
		return nil
	}, func(error) {
		close(done)
	})
}

// Interrupt adds an actor that returns on SIGINT, SIGQUIT or SIGTERM. The
// returned channel is closed once the group is interrupted.
func Interrupt(g *Group) <-chan struct{} {
	done := make(chan struct{})
	g.Add(func() error {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		defer signal.Stop(signals)

		select {
		case sig := <-signals:
			return errors.Errorf("received signal %s", sig)
		case <-done:
			return errors.New("canceled")
		}
	}, func(error) {
		close(done)
	})
	return done
}
