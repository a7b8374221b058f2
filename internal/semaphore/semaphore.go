package semaphore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/taskgridgo/internal/task"
)

// Semaphore is a timeline semaphore: a named uint64 payload that only moves
// forward. Signaling to a lower or equal value is an error; failing the
// semaphore poisons it so every current and future waiter observes the error.
type Semaphore struct {
	name string

	mu         sync.Mutex
	value      uint64
	err        error
	timepoints []*timepoint // sorted by value, ascending
}

// Semaphore is both ends of the task system's timeline contract.
var (
	_ task.Signaler  = (*Semaphore)(nil)
	_ task.Awaitable = (*Semaphore)(nil)
)

// timepoint is one registered wait: notify fires once the timeline reaches
// value or the semaphore fails.
type timepoint struct {
	value  uint64
	notify func(error)
}

// New returns a semaphore starting at initial.
func New(name string, initial uint64) *Semaphore {
	return &Semaphore{name: name, value: initial}
}

// Name returns the semaphore's name.
func (s *Semaphore) Name() string { return s.name }

// Query returns the current timeline value. A failed semaphore reports its
// failure alongside the last value it reached.
func (s *Semaphore) Query() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.err
}

// Signal advances the timeline to value and fires every timepoint at or below
// it. The timeline is strictly increasing: values that do not advance it are
// rejected without disturbing the current payload.
func (s *Semaphore) Signal(value uint64) error {
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return fmt.Errorf("semaphore %q already failed: %w", s.name, err)
	}
	if value <= s.value {
		current := s.value
		s.mu.Unlock()
		return fmt.Errorf("semaphore %q: signal to %d does not advance the timeline past %d",
			s.name, value, current)
	}
	s.value = value
	var fired []*timepoint
	for len(s.timepoints) > 0 && s.timepoints[0].value <= value {
		fired = append(fired, s.timepoints[0])
		s.timepoints = s.timepoints[1:]
	}
	s.mu.Unlock()

	// Notifies run unlocked: they are allowed to re-enter the semaphore.
	for _, tp := range fired {
		tp.notify(nil)
	}
	return nil
}

// Fail poisons the semaphore. The first failure sticks; all registered
// timepoints fire with err and later waits observe it immediately.
func (s *Semaphore) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return
	}
	s.err = err
	fired := s.timepoints
	s.timepoints = nil
	s.mu.Unlock()

	for _, tp := range fired {
		tp.notify(err)
	}
}

// Reached reports whether the timeline already passed value.
func (s *Semaphore) Reached(value uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	return s.value >= value, nil
}

// WhenReached arranges for notify to run exactly once when value is reached
// or the semaphore fails. Satisfied and failed conditions notify inline
// before WhenReached returns.
func (s *Semaphore) WhenReached(value uint64, notify func(err error)) {
	s.whenReached(value, notify)
}

// whenReached registers a cancelable timepoint. A nil return means notify
// already ran inline.
func (s *Semaphore) whenReached(value uint64, notify func(error)) *timepoint {
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		notify(err)
		return nil
	}
	if s.value >= value {
		s.mu.Unlock()
		notify(nil)
		return nil
	}
	tp := &timepoint{value: value, notify: notify}
	i := sort.Search(len(s.timepoints), func(i int) bool {
		return s.timepoints[i].value > value
	})
	s.timepoints = append(s.timepoints, nil)
	copy(s.timepoints[i+1:], s.timepoints[i:])
	s.timepoints[i] = tp
	s.mu.Unlock()
	return tp
}

// cancelTimepoint drops a registered timepoint. Safe to call after the
// timepoint fired or with nil.
func (s *Semaphore) cancelTimepoint(tp *timepoint) {
	if tp == nil {
		return
	}
	s.mu.Lock()
	for i, existing := range s.timepoints {
		if existing == tp {
			s.timepoints = append(s.timepoints[:i], s.timepoints[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Wait blocks until the timeline reaches value, the semaphore fails, or ctx
// expires. A ctx that is already expired still succeeds when the condition
// holds, so callers can poll with an expired context.
func (s *Semaphore) Wait(ctx context.Context, value uint64) error {
	satisfied := make(chan error, 1)
	tp := s.whenReached(value, func(err error) { satisfied <- err })
	defer s.cancelTimepoint(tp)

	select {
	case err := <-satisfied:
		return err
	default:
	}
	select {
	case err := <-satisfied:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
