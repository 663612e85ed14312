package actors

import (
	"testing"

	"github.com/pkg/errors"
)

type stubActor struct {
	id      string
	done    bool
	written [][]byte
}

func (a *stubActor) ID() string { return a.id }
func (a *stubActor) Types() []string { return []string{"job"} }
func (a *stubActor) Write(data []byte) error { a.written = append(a.written, data); return nil }
func (a *stubActor) Close() { a.done = true }
func (a *stubActor) Done() bool { return a.done }

func TestGroup(t *testing.T) {
	t.Run("add replaces actors with the same id", func(t *testing.T) {
		group := NewGroup()
		group.Add(&stubActor{id: "a"})
		group.Add(&stubActor{id: "a"})
		group.Add(&stubActor{id: "b"})

		if expected, actual := 2, group.Len(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})

	t.Run("prune removes done actors", func(t *testing.T) {
		group := NewGroup()
		live := &stubActor{id: "live"}
		group.Add(live)
		group.Add(&stubActor{id: "done", done: true})

		if expected, actual := true, group.Prune(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
		if expected, actual := false, group.Prune(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
		if expected, actual := 1, group.Len(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})

	t.Run("walk stops at the first error", func(t *testing.T) {
		group := NewGroup()
		group.Add(&stubActor{id: "a"})
		group.Add(&stubActor{id: "b"})

		var calls int
		err := group.Walk(func(Actor) error {
			calls++
			return errors.New("bad")
		})
		if err == nil {
			t.Fatal("expected err not to be nil")
		}
		if expected, actual := 1, calls; expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})

	t.Run("remove", func(t *testing.T) {
		group := NewGroup()
		a := &stubActor{id: "a"}
		group.Add(a)
		group.Remove(a)

		if err := group.Walk(func(Actor) error {
			return errors.New("unexpected actor")
		}); err != nil {
			t.Error(err)
		}
	})
}
