package task

import (
	"context"
	"fmt"
)

// Env is the per-worker execution environment handed to task bodies.
type Env struct {
	Worker  int    // executing worker index
	Workers int    // pool width; sizes dispatch fan-out
	Scratch []byte // worker-local scratch memory
	Fanout  *List  // receives tasks this execution makes runnable
}

// Execute runs the task body on the calling worker. done=false means the
// task re-enters the scheduler later (a dispatch parked on its slices) and
// must not retire yet. A non-nil error is a task failure: the caller marks
// the scope failed and discards dependents instead of completing them.
func (t *Task) Execute(ctx context.Context, env *Env) (done bool, err error) {
	switch t.kind {
	case KindCall:
		return true, t.fn(ctx)
	case KindBarrier:
		// Pure control flow: the join happened through the pending counter.
		return true, nil
	case KindFence:
		return true, t.signalFence()
	case KindWait:
		// The executor resolves wait readiness before handing the task to a
		// worker; by the time a wait executes its condition holds or the
		// timeline behind it has failed.
		_, waitErr := t.wait.source.Reached(t.wait.value)
		return true, waitErr
	case KindDispatch:
		return t.executeDispatch(env)
	case KindDispatchSlice:
		return true, t.executeSlice(ctx, env)
	default:
		return true, fmt.Errorf("task %q has unknown kind %d", t.name, t.kind)
	}
}

// signalFence advances the fence's timeline. A failed scope poisons the
// timeline instead of advancing it so downstream waiters observe the failure
// rather than a bogus value. The scope bracket stays open here; Complete and
// RetireFailed close it once the retirement bookkeeping is done.
func (t *Task) signalFence() error {
	if t.fence.signal == nil {
		return nil
	}
	if scopeErr := t.scope.Err(); scopeErr != nil {
		t.fence.signal.Fail(scopeErr)
		return nil
	}
	return t.fence.signal.Signal(t.fence.value)
}
