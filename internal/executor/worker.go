package executor

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vk/taskgridgo/internal/task"
	"github.com/vk/taskgridgo/internal/topology"
)

// worker is one pool member: a goroutine bound to a topology group, owning a
// run queue that siblings may steal from.
type worker struct {
	e     *Executor
	index int
	group topology.Group
	log   *slog.Logger

	mu    sync.Mutex
	queue task.List

	wake    chan struct{}
	started atomic.Bool
	scratch []byte
}

func newWorker(e *Executor, group topology.Group, log *slog.Logger) *worker {
	return &worker{
		e:     e,
		index: group.Index,
		group: group,
		log:   log.With("worker", group.Name),
		wake:  make(chan struct{}, 1),
	}
}

// ensureStarted launches the worker goroutine on first use. With deferred
// startup this is the first moment the pool pays for the worker at all. A
// pool that is already down starts nobody.
func (w *worker) ensureStarted() {
	if w.e.down.Load() {
		return
	}
	if w.started.CompareAndSwap(false, true) {
		w.e.wg.Add(1)
		go w.run()
	}
}

func (w *worker) run() {
	defer w.e.wg.Done()
	pinThread(w.group.Processor, w.log)
	w.scratch = make([]byte, w.e.scratchSize)
	w.log.Debug("Worker started.", "processor", w.group.Processor)

	// The shutdown check sits between tasks: a worker finishes what it is
	// on, never picks another, and leaves the leftovers for the discard pass.
	for !w.e.down.Load() {
		t := w.nextTask()
		if t == nil {
			if !w.park() {
				break
			}
			continue
		}
		w.execute(t)
	}
	w.log.Debug("Worker finished.")
}

// nextTask takes from the own queue first, then drains the shared mailbox,
// then steals. Returns nil once the whole pool looked empty.
func (w *worker) nextTask() *task.Task {
	for {
		w.mu.Lock()
		t := w.queue.PopFront()
		w.mu.Unlock()
		if t != nil {
			return t
		}
		if w.flushMailbox() {
			continue
		}
		if w.steal() {
			continue
		}
		return nil
	}
}

// flushMailbox moves the shared mailbox into the own queue in the pool's
// flush order. Concurrent flushers each end up with disjoint chains.
func (w *worker) flushMailbox() bool {
	flushed := w.e.mailbox.Flush(w.e.flushOrder)
	if flushed.Empty() {
		return false
	}
	w.e.stats.flushes.Add(1)
	w.mu.Lock()
	w.queue.Append(&flushed)
	w.mu.Unlock()
	return true
}

// steal raids a sibling's queue tail, visiting same-cache-domain siblings
// before the rest of the pool.
func (w *worker) steal() bool {
	n := len(w.e.workers)
	for pass := 0; pass < 2; pass++ {
		for off := 1; off < n; off++ {
			v := w.e.workers[(w.index+off)%n]
			sameDomain := v.group.CacheGroup == w.group.CacheGroup
			if sameDomain != (pass == 0) {
				continue
			}
			v.mu.Lock()
			stolen := v.queue.Split(stealMax)
			v.mu.Unlock()
			if stolen.Empty() {
				continue
			}
			count := stolen.Len()
			w.e.stats.steals.Add(1)
			w.log.Debug("Stole work.", "victim", v.group.Name, "tasks", count)
			w.mu.Lock()
			w.queue.Append(&stolen)
			w.mu.Unlock()
			return true
		}
	}
	return false
}

// park publishes idleness and blocks for a wake token. The mailbox recheck
// after publishing closes the race with a concurrent submit: either the
// submitter sees the idle bit, or the worker sees the push.
func (w *worker) park() bool {
	w.e.setIdle(w.index)
	if !w.e.mailbox.Empty() {
		w.e.clearIdle(w.index)
		return true
	}
	select {
	case <-w.wake:
		// The waker already claimed our idle bit.
		return true
	case <-w.e.downCh:
		return false
	}
}

func (w *worker) execute(t *task.Task) {
	if t.Discarded() {
		// A wait task abandoned at shutdown can still be delivered by a late
		// timeline signal; it carries no work by then.
		return
	}

	var fanout task.List
	env := task.Env{
		Worker:  w.index,
		Workers: len(w.e.workers),
		Scratch: w.scratch,
		Fanout:  &fanout,
	}
	done, err := w.runBody(t, &env)
	switch {
	case err != nil:
		w.log.Warn("Task failed.", "task", t.Name(), "kind", t.Kind(), "error", err)
		var doomed task.List
		t.RetireFailed(err, &doomed)
		doomed.Discard()
	case !done:
		// A dispatch parked on its slices; the last slice re-readies it.
		w.enqueueLocal(&fanout)
	default:
		var ready task.List
		t.Complete(&ready)
		w.enqueueLocal(&ready)
	}
}

// runBody invokes the task body with a panic fence: a panicking kernel
// becomes a task failure instead of taking down the whole pool.
func (w *worker) runBody(t *task.Task, env *task.Env) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			done = true
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Execute(w.e.ctx, env)
}

// enqueueLocal prepends freshly readied tasks to the own queue and wakes
// enough parked workers to help with the surplus.
func (w *worker) enqueueLocal(l *task.List) {
	if l.Empty() {
		return
	}
	surplus := l.Len() - 1
	w.mu.Lock()
	w.queue.Prepend(l)
	w.mu.Unlock()
	if surplus > 0 {
		w.e.wakeIdle(surplus)
	}
}

// discardQueue abandons everything left in the queue. Only called after the
// worker goroutine exited.
func (w *worker) discardQueue() {
	w.mu.Lock()
	q := w.queue
	w.queue = task.List{}
	w.mu.Unlock()
	q.Discard()
}
