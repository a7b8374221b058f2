package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrAbandoned is the sticky status of work dropped during shutdown or by
// Scope.Abort, as opposed to work that failed on its own.
var ErrAbandoned = errors.New("task abandoned before execution")

// scopeNameLimit bounds scope names so log attributes stay short.
const scopeNameLimit = 32

// Scope groups related tasks for failure and idle tracking: one scope per
// logical invocation, shared by many tasks, outliving all of them. Scopes
// count submissions in flight through Begin/End brackets and retain only the
// first failure status reported to them.
type Scope struct {
	name string

	mu      sync.Mutex
	pending int
	// idle is closed when pending drops to zero and replaced on the next
	// Begin, so waiters of a given generation never miss the transition.
	idle chan struct{}

	// failure holds the sticky first-failure status. CAS keeps the first
	// error; later ones are dropped.
	failure atomic.Pointer[error]

	counters scopeCounters
}

type scopeCounters struct {
	executed  atomic.Uint64
	failed    atomic.Uint64
	discarded atomic.Uint64
	slices    atomic.Uint64
}

// Statistics is a consumed snapshot of a scope's scheduler activity.
type Statistics struct {
	TasksExecuted  uint64
	TasksFailed    uint64
	TasksDiscarded uint64
	SlicesExecuted uint64
}

// NewScope creates an idle scope. Names longer than the limit are truncated.
func NewScope(name string) *Scope {
	if len(name) > scopeNameLimit {
		name = name[:scopeNameLimit]
	}
	return &Scope{name: name}
}

// Name returns the scope's (possibly truncated) name.
func (s *Scope) Name() string { return s.name }

// Begin opens a submission bracket. Every Begin must be matched by exactly
// one End; fences do both automatically over their lifetime.
func (s *Scope) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
}

// End closes a submission bracket and posts the idle notification when the
// last bracket closes. Unbalanced Ends are a programming error.
func (s *Scope) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending < 0 {
		panic(fmt.Sprintf("task scope %q: End without matching Begin", s.name))
	}
	if s.pending == 0 {
		close(s.idle)
	}
}

// IsIdle reports whether no submissions are in flight.
func (s *Scope) IsIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending == 0
}

// WaitIdle blocks until the scope has no submissions in flight or ctx is
// done. An already-expired context degrades to a poll: nil if the scope is
// idle right now, ctx.Err() otherwise, without blocking. The deadline result
// is recoverable; callers may simply wait again.
func (s *Scope) WaitIdle(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.pending == 0 {
			s.mu.Unlock()
			return nil
		}
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Fail records a task failure. Only the first failure sticks; concurrent and
// later failures are dropped, first error wins.
func (s *Scope) Fail(err error) {
	if err == nil {
		return
	}
	s.failure.CompareAndSwap(nil, &err)
}

// Abort marks the scope failed with ErrAbandoned, used when a caller drops
// an invocation rather than a task failing on its own.
func (s *Scope) Abort() { s.Fail(ErrAbandoned) }

// HasFailed reports whether a failure status is currently stored.
func (s *Scope) HasFailed() bool { return s.failure.Load() != nil }

// Err peeks at the stored failure status without consuming it.
func (s *Scope) Err() error {
	if p := s.failure.Load(); p != nil {
		return *p
	}
	return nil
}

// ConsumeStatus atomically takes the stored failure status. The first caller
// after a failure receives the error; everyone after that gets nil. The
// usual sequence is WaitIdle then ConsumeStatus.
func (s *Scope) ConsumeStatus() error {
	if p := s.failure.Swap(nil); p != nil {
		return *p
	}
	return nil
}

// ConsumeStatistics takes and resets the scope's activity counters.
func (s *Scope) ConsumeStatistics() Statistics {
	return Statistics{
		TasksExecuted:  s.counters.executed.Swap(0),
		TasksFailed:    s.counters.failed.Swap(0),
		TasksDiscarded: s.counters.discarded.Swap(0),
		SlicesExecuted: s.counters.slices.Swap(0),
	}
}

// Close verifies the scope wound down cleanly. Closing a scope with
// submissions still in flight is a programming error, hence the panic: the
// tasks under it hold references that would dangle.
func (s *Scope) Close() {
	if !s.IsIdle() {
		panic(fmt.Sprintf("task scope %q closed while %d submissions in flight", s.name, s.pendingCount()))
	}
}

func (s *Scope) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
