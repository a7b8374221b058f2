package task

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Kind discriminates the behavior of a task when a worker executes it.
type Kind uint8

const (
	// KindCall invokes a Go function with the worker's context.
	KindCall Kind = iota
	// KindBarrier joins N predecessors and fans out to M successors.
	KindBarrier
	// KindFence marks the end of a submission: it signals an optional
	// timeline and closes the scope's begin/end bracket when it retires.
	KindFence
	// KindWait gates execution on an external timeline value. Wait tasks
	// never occupy a worker while the condition is unsatisfied.
	KindWait
	// KindDispatch is the root of a parallel grid: on first execution it
	// fans out into dispatch slices and retires once all slices complete.
	KindDispatch
	// KindDispatchSlice covers a contiguous range of a dispatch grid.
	KindDispatchSlice
)

// String returns the lowercase kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindBarrier:
		return "barrier"
	case KindFence:
		return "fence"
	case KindWait:
		return "wait"
	case KindDispatch:
		return "dispatch"
	case KindDispatchSlice:
		return "dispatch_slice"
	default:
		return "unknown"
	}
}

// Fn is the body of a call task. It runs at most once, on exactly one worker.
type Fn func(ctx context.Context) error

// Signaler is a timeline a fence task can advance when it retires. Timeline
// semaphores implement it; the task package only cares about the contract.
type Signaler interface {
	// Signal advances the timeline to value.
	Signal(value uint64) error
	// Fail poisons the timeline so external waiters observe err.
	Fail(err error)
}

// Awaitable is the external timeline a wait task is gated on.
type Awaitable interface {
	// Reached reports whether the timeline already passed value. A non-nil
	// error means the timeline has failed.
	Reached(value uint64) (bool, error)
	// WhenReached arranges for notify to run exactly once when value is
	// reached or the timeline fails. notify runs on the signaling goroutine
	// and must not block.
	WhenReached(value uint64, notify func(err error))
}

// Discard progresses through three states so diamond-shaped graphs stage and
// process each task exactly once even when several predecessors drop it.
const (
	discardNone int32 = iota
	discardStaged
	discardDone
)

// Task is the smallest schedulable unit of work. Tasks are built by a
// producer, wired together with DependOn, staged through a Submission, and
// executed at most once by exactly one worker.
type Task struct {
	kind  Kind
	name  string
	scope *Scope

	// next links the task into whichever List or Slist currently owns it.
	// Atomic because mailbox pushes race with each other; list transfers
	// synchronize through the mailbox head or the owning queue's mutex.
	next atomic.Pointer[Task]

	// pending counts unresolved predecessor edges. The task becomes ready
	// when it reaches zero. Discarded predecessors never decrement it.
	pending atomic.Int32

	// completion holds the dependents to notify when this task retires.
	// Plain pointers, not list links: a dependent with fan-in appears in
	// several predecessors' completion sets while belonging to no queue.
	completion []*Task

	// cleanup runs if the task is abandoned instead of executed.
	cleanup func(*Task)

	discardState atomic.Int32

	fn           Fn             // KindCall
	barrierPreds int32          // KindBarrier: explicit join count
	fence        *fenceState    // KindFence
	wait         *waitState     // KindWait
	dispatch     *dispatchState // KindDispatch
	slice        *sliceState    // KindDispatchSlice
}

type fenceState struct {
	signal Signaler
	value  uint64
}

type waitState struct {
	source Awaitable
	value  uint64
}

// NewCall builds a call task executing fn under scope.
func NewCall(scope *Scope, name string, fn Fn) *Task {
	return &Task{kind: KindCall, name: name, scope: scope, fn: fn}
}

// NewBarrier builds a barrier task under scope. Barriers carry no body; they
// exist to join predecessors and fan out to successors.
func NewBarrier(scope *Scope, name string) *Task {
	return &Task{kind: KindBarrier, name: name, scope: scope}
}

// NewFence builds a fence task under scope. Creating the fence opens the
// scope's begin/end bracket; retiring or discarding it closes the bracket, so
// a scope with a fence in flight is never observed idle early. If signal is
// non-nil the fence advances it to value on successful retirement.
func NewFence(scope *Scope, name string, signal Signaler, value uint64) *Task {
	scope.Begin()
	return &Task{kind: KindFence, name: name, scope: scope, fence: &fenceState{signal: signal, value: value}}
}

// NewWait builds a wait task gated on source reaching value.
func NewWait(scope *Scope, name string, source Awaitable, value uint64) *Task {
	return &Task{kind: KindWait, name: name, scope: scope, wait: &waitState{source: source, value: value}}
}

// Kind returns the task's kind.
func (t *Task) Kind() Kind { return t.kind }

// Name returns the producer-assigned task name.
func (t *Task) Name() string { return t.name }

// Scope returns the scope the task belongs to.
func (t *Task) Scope() *Scope { return t.scope }

// Pending returns the current dependency counter value.
func (t *Task) Pending() int32 { return t.pending.Load() }

// Discarded reports whether the task was abandoned instead of executed.
func (t *Task) Discarded() bool { return t.discardState.Load() != discardNone }

// JoinCount returns a barrier's explicit predecessor count. Zero for all
// other kinds.
func (t *Task) JoinCount() int32 { return t.barrierPreds }

// WaitCondition returns the timeline and threshold a wait task is gated on.
func (t *Task) WaitCondition() (Awaitable, uint64) {
	if t.wait == nil {
		return nil, 0
	}
	return t.wait.source, t.wait.value
}

// SetCleanup installs the discard callback. It fires at most once, and only
// if the task is abandoned rather than executed.
func (t *Task) SetCleanup(fn func(*Task)) { t.cleanup = fn }

// RetainDependency increments the pending counter ahead of a new predecessor
// edge. Producers wiring edges by hand must call it before the predecessor's
// completion set learns about the task; DependOn does both.
func (t *Task) RetainDependency() { t.pending.Add(1) }

// DependOn records that t must not start before dep retires. Only valid
// during graph construction, before either task is submitted.
func (t *Task) DependOn(dep *Task) {
	t.RetainDependency()
	if t.kind == KindBarrier {
		t.barrierPreds++
	}
	dep.completion = append(dep.completion, t)
}

// Complete retires an executed task. Every dependent's pending counter is
// decremented; dependents that hit zero are pushed onto the front of ready,
// which in the steady state is the retiring worker's own run queue so the
// freshest work runs next.
func (t *Task) Complete(ready *List) {
	t.scope.counters.executed.Add(1)
	if t.kind == KindDispatchSlice {
		t.scope.counters.slices.Add(1)
	}
	deps := t.completion
	t.completion = nil
	for _, dep := range deps {
		if dep.pending.Add(-1) == 0 && !dep.Discarded() {
			ready.PushFront(dep)
		}
	}
	// The bracket closes last so a WaitIdle waker observes final statistics.
	if t.kind == KindFence {
		t.scope.End()
	}
}

// Discard abandons a task that will never execute: the cleanup callback
// fires, a fence still closes its scope bracket, and every dependent is
// staged onto pending for the caller to keep walking. Callers drive the
// iteration with an explicit work list so arbitrarily deep graphs discard in
// constant stack space; List.Discard is the usual entry point.
func (t *Task) Discard(pending *List) {
	if t.discardState.Swap(discardDone) == discardDone {
		return
	}
	t.runDiscard(pending)
}

// RetireFailed retires a task whose body executed and returned err: the
// failure is attached to the scope (first error wins, wrapped with the task
// name) and every dependent is staged onto doomed, since its inputs will
// never materialize. Draining doomed with List.Discard finishes the walk.
func (t *Task) RetireFailed(err error, doomed *List) {
	t.scope.counters.failed.Add(1)
	t.scope.Fail(fmt.Errorf("task %q: %w", t.name, err))
	t.DiscardDependents(doomed)
	if t.kind == KindFence {
		t.scope.End()
	}
}

// DiscardDependents drops the dependents of a task that executed but failed:
// the task itself retired, so only its fan-out is staged for discard.
// Draining pending with List.Discard finishes the transitive walk.
func (t *Task) DiscardDependents(pending *List) {
	deps := t.completion
	t.completion = nil
	for _, dep := range deps {
		if dep.stageDiscard() {
			pending.PushBack(dep)
		}
	}
}

// stageDiscard claims a not-yet-discarded task for a pending discard list.
// Claiming at staging time keeps a task with several dropped predecessors
// from entering two work lists.
func (t *Task) stageDiscard() bool {
	return t.discardState.CompareAndSwap(discardNone, discardStaged)
}

// runDiscard performs the actual abandonment. The caller owns the discard
// claim; runDiscard executes at most once per task.
func (t *Task) runDiscard(pending *List) {
	t.scope.counters.discarded.Add(1)
	if t.cleanup != nil {
		t.cleanup(t)
	}
	if t.kind == KindFence {
		t.retireFenceDiscarded()
	}
	t.DiscardDependents(pending)
}

// retireFenceDiscarded closes the scope bracket for a fence that will never
// execute and poisons its timeline so external waiters unblock.
func (t *Task) retireFenceDiscarded() {
	if t.fence.signal != nil {
		err := t.scope.Err()
		if err == nil {
			err = ErrAbandoned
		}
		t.fence.signal.Fail(err)
	}
	t.scope.End()
}
