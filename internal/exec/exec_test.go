package exec_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/exec"
)

func TestGroupEmpty(t *testing.T) {
	if err := exec.NewGroup().Run(); err != nil {
		t.Errorf("expected err to be nil, got %v", err)
	}
}

func TestGroupFirstErrorWins(t *testing.T) {
	g := exec.NewGroup()
	g.Add(func() error {
		return errors.New("first")
	}, func(error) {})

	var interrupted error
	stop := make(chan struct{})
	g.Add(func() error {
		<-stop
		return errors.New("second")
	}, func(err error) {
		interrupted = err
		close(stop)
	})

	done := make(chan error)
	go func() { done <- g.Run() }()

	select {
	case err := <-done:
		if expected, actual := "first", err.Error(); expected != actual {
			t.Errorf("expected: %q, actual: %q", expected, actual)
		}
		if expected, actual := "first", interrupted.Error(); expected != actual {
			t.Errorf("expected: %q, actual: %q", expected, actual)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestBlockAndInterrupt(t *testing.T) {
	g := exec.NewGroup()
	exec.Block(g)
	cancel := exec.Interrupt(g)
	g.Add(func() error { return nil }, func(error) {})

	done := make(chan error)
	go func() { done <- g.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected err to be nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}

	select {
	case <-cancel:
	default:
		t.Error("expected interrupt channel to be closed")
	}
}
