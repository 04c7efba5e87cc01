package dbgp

import (
	"context"
	"slices"
	"sync"
)

// Mode names a run mode of a Loop.  A task posted with modes only runs
// while the loop is being run in one of them.
type Mode string

// DefaultMode is the mode Run uses.
const DefaultMode Mode = "default"

type task struct {
	fn    func()
	modes []Mode
}

func (t *task) runsIn(mode Mode) bool {
	return len(t.modes) == 0 || slices.Contains(t.modes, mode)
}

// Loop is an execution context: a FIFO of closures consumed by whichever
// goroutine runs it.  Posting never blocks.
type Loop struct {
	mu    sync.Mutex
	tasks []task
	wake  chan struct{}
}

// NewLoop returns an empty Loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post schedules fn to run on the loop.  With no modes fn may run in any
// mode.
func (l *Loop) Post(fn func(), modes ...Mode) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, task{fn: fn, modes: modes})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of tasks waiting to run, in any mode.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// next removes and returns the first task allowed in mode.
func (l *Loop) next(mode Mode) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.tasks {
		if !l.tasks[i].runsIn(mode) {
			continue
		}
		fn := l.tasks[i].fn
		l.tasks = slices.Delete(l.tasks, i, i+1)
		return fn
	}
	return nil
}

// Run runs tasks in DefaultMode until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	return l.RunMode(ctx, DefaultMode)
}

// RunMode runs tasks allowed in mode until ctx is done.  Tasks run one
// at a time in the order they were posted.
func (l *Loop) RunMode(ctx context.Context, mode Mode) error {
	for {
		if fn := l.next(mode); fn != nil {
			fn()
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunPending runs tasks allowed in mode until none is left, without
// waiting for more.  It returns the number of tasks run.
func (l *Loop) RunPending(mode Mode) int {
	n := 0
	for fn := l.next(mode); fn != nil; fn = l.next(mode) {
		fn()
		n++
	}
	return n
}
