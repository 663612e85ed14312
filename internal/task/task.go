// Package task runs the periodic background work of a registry process,
// such as dispatch cycles, service heartbeats and job cleanup.
package task

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Task is a function running on a Schedule inside a Group.
type Task struct {
	f        Func
	schedule Schedule
	reset    chan struct{}
}

// Reset makes the task evaluate its schedule again straight away.
func (t *Task) Reset() {
	select {
	case t.reset <- struct{}{}:
	default:
	}
}

func (t *Task) loop(ctx context.Context) {
	var delay time.Duration
	for {
		interval, err := t.schedule()

		var wait <-chan time.Time
		switch {
		case err == ErrSkip:
			if interval > 0 {
				wait = time.After(interval)
			}
		case err != nil:
			if interval <= 0 {
				return
			}
			wait = time.After(interval)
		case interval > 0:
			wait = time.After(delay)
		}

		select {
		case <-wait:
			delay = 0
			if err == nil {
				t.f(ctx)
				delay = interval
			}
		case <-t.reset:
			delay = 0
		case <-ctx.Done():
			return
		}
	}
}

// Group starts and stops a set of tasks together.
type Group struct {
	mutex   sync.Mutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	tasks   []*Task
	running map[int]bool
}

// NewGroup creates an empty Group.
func NewGroup() *Group {
	return &Group{}
}

// Add a task to the group. It only runs once the group is started.
func (g *Group) Add(f Func, schedule Schedule) *Task {
	t := &Task{
		f:        f,
		schedule: schedule,
		reset:    make(chan struct{}, 1),
	}
	g.tasks = append(g.tasks, t)
	return t
}

// Len returns the number of tasks in the group.
func (g *Group) Len() int {
	return len(g.tasks)
}

// Start every task of the group in its own goroutine.
func (g *Group) Start() {
	ctx, cancel := context.WithCancel(context.Background())

	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.cancel = cancel
	g.running = make(map[int]bool, len(g.tasks))
	for i, t := range g.tasks {
		g.running[i] = true
		g.wg.Add(1)
		go func(i int, t *Task) {
			defer g.wg.Done()
			t.loop(ctx)

			g.mutex.Lock()
			g.running[i] = false
			g.mutex.Unlock()
		}(i, t)
	}
}

// Stop cancels every task and waits for them to return. Tasks still
// running after the timeout are reported in the error.
func (g *Group) Stop(timeout time.Duration) error {
	g.mutex.Lock()
	cancel := g.cancel
	g.mutex.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()
	var running []int
	for i, ok := range g.running {
		if ok {
			running = append(running, i)
		}
	}
	sort.Ints(running)
	ids := make([]string, len(running))
	for k, i := range running {
		ids[k] = strconv.Itoa(i)
	}
	return errors.Errorf("tasks %s are still running", strings.Join(ids, ", "))
}

// Start runs a single task and returns its stop and reset functions.
func Start(f Func, schedule Schedule) (func(time.Duration) error, func()) {
	group := NewGroup()
	t := group.Add(f, schedule)
	group.Start()
	return group.Stop, t.Reset
}
