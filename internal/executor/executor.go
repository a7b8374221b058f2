package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/task"
	"github.com/vk/taskgridgo/internal/topology"
)

// DefaultWorkerLocalMemory is the per-worker scratch reservation used when
// the config leaves WorkerLocalMemory zero.
const DefaultWorkerLocalMemory = 64 * 1024

// stealMax bounds how many tasks a single steal takes from a victim.
const stealMax = 8

// Config shapes an executor pool.
type Config struct {
	// Topology supplies one group per worker. Required.
	Topology *topology.Topology
	// FlushOrder controls the order in which mailbox flushes hand tasks to
	// workers. The zero value keeps the mailbox's natural newest-first
	// order; FIFO preserves submission order at the cost of a reversal pass.
	FlushOrder task.FlushOrder
	// DeferWorkerStartup delays each worker goroutine until work is first
	// routed to it, so short programs never pay for the full pool.
	DeferWorkerStartup bool
	// DedicatedWaitPoller moves wait-task delivery onto its own goroutine
	// instead of running it on whichever goroutine signals the timeline.
	DedicatedWaitPoller bool
	// WorkerLocalMemory sizes the scratch buffer each worker allocates for
	// dispatch tiles. Zero means DefaultWorkerLocalMemory.
	WorkerLocalMemory int
}

// Executor owns a fixed pool of workers laid out by a topology. Producers
// build task graphs, stage them in submissions and hand them to Submit; the
// pool runs them to completion or discards them at shutdown.
type Executor struct {
	log    *slog.Logger
	ctx    context.Context // base context handed to task bodies
	cancel context.CancelFunc

	workers     []*worker
	mailbox     task.Slist
	flushOrder  task.FlushOrder
	scratchSize int
	poller      *poller

	// idleMask has bit i set while worker i is parked or not yet started.
	idleMask atomic.Uint64

	down     atomic.Bool
	downCh   chan struct{}
	wg       sync.WaitGroup
	shutdown sync.Once

	stats statsCounters
}

type statsCounters struct {
	submissions atomic.Uint64
	flushes     atomic.Uint64
	steals      atomic.Uint64
	parks       atomic.Uint64
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers     int    `json:"workers"`
	Submissions uint64 `json:"submissions"`
	Flushes     uint64 `json:"flushes"`
	Steals      uint64 `json:"steals"`
	Parks       uint64 `json:"parks"`
}

// New builds a pool with one worker per topology group. The context carries
// the logger and becomes the base context task bodies run under; Shutdown
// cancels it.
func New(ctx context.Context, cfg Config) (*Executor, error) {
	log := ctxlog.FromContext(ctx)

	if cfg.Topology == nil || cfg.Topology.GroupCount() == 0 {
		return nil, fmt.Errorf("executor requires a topology with at least one group")
	}
	scratchSize := cfg.WorkerLocalMemory
	if scratchSize == 0 {
		scratchSize = DefaultWorkerLocalMemory
	}
	if scratchSize < 0 {
		return nil, fmt.Errorf("worker local memory must not be negative, got %d", cfg.WorkerLocalMemory)
	}

	e := &Executor{
		log:         log,
		flushOrder:  cfg.FlushOrder,
		scratchSize: scratchSize,
		downCh:      make(chan struct{}),
	}
	e.ctx, e.cancel = context.WithCancel(ctx)

	groups := cfg.Topology.Groups()
	e.workers = make([]*worker, 0, len(groups))
	for _, g := range groups {
		e.workers = append(e.workers, newWorker(e, g, log))
	}
	if n := len(e.workers); n >= 64 {
		e.idleMask.Store(^uint64(0))
	} else {
		e.idleMask.Store(uint64(1)<<n - 1)
	}

	e.poller = newPoller(e, cfg.DedicatedWaitPoller)

	if !cfg.DeferWorkerStartup {
		for _, w := range e.workers {
			w.ensureStarted()
		}
	}

	log.Debug("Executor pool configured.",
		"workers", len(e.workers),
		"defer_worker_startup", cfg.DeferWorkerStartup,
		"dedicated_wait_poller", cfg.DedicatedWaitPoller,
		"worker_local_memory", scratchSize,
	)
	return e, nil
}

// Workers returns the pool width.
func (e *Executor) Workers() int { return len(e.workers) }

// WorkerLocalMemory returns the per-worker scratch reservation in bytes.
func (e *Executor) WorkerLocalMemory() int { return e.scratchSize }

// Submit hands a built submission to the pool. Ready tasks enter through the
// shared mailbox; wait tasks register with the poller and enter the mailbox
// when their condition fires. Safe from any goroutine. Submitting after
// Shutdown abandons the tasks with their cleanup semantics intact.
func (e *Executor) Submit(sub *task.Submission) {
	if sub == nil {
		return
	}
	if e.down.Load() {
		sub.Discard()
		return
	}
	e.stats.submissions.Add(1)

	for t := sub.Waiting.PopFront(); t != nil; t = sub.Waiting.PopFront() {
		e.poller.submit(t)
	}
	n := 0
	for t := sub.Ready.PopFront(); t != nil; t = sub.Ready.PopFront() {
		e.mailbox.Push(t)
		n++
	}
	if n > 0 {
		e.wakeIdle(n)
	}
}

// enqueueReady feeds a single now-runnable task into the pool, discarding it
// instead when the pool is already down.
func (e *Executor) enqueueReady(t *task.Task) {
	if e.down.Load() {
		var l task.List
		l.PushBack(t)
		l.Discard()
		return
	}
	e.mailbox.Push(t)
	e.wakeIdle(1)
}

// wakeIdle claims up to n parked workers and sends each a wake token. A
// claimed worker that was actually awake just finds a spare token at its next
// park and loops once more, which is harmless.
func (e *Executor) wakeIdle(n int) {
	for n > 0 {
		mask := e.idleMask.Load()
		if mask == 0 {
			return
		}
		i := bits.TrailingZeros64(mask)
		if !e.idleMask.CompareAndSwap(mask, mask&^(uint64(1)<<i)) {
			continue
		}
		w := e.workers[i]
		w.ensureStarted()
		select {
		case w.wake <- struct{}{}:
		default:
		}
		n--
	}
}

func (e *Executor) setIdle(i int) {
	e.idleMask.Or(uint64(1) << i)
	e.stats.parks.Add(1)
}

func (e *Executor) clearIdle(i int) {
	e.idleMask.And(^(uint64(1) << i))
}

// Stats returns a snapshot of pool activity counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Workers:     len(e.workers),
		Submissions: e.stats.submissions.Load(),
		Flushes:     e.stats.flushes.Load(),
		Steals:      e.stats.steals.Load(),
		Parks:       e.stats.parks.Load(),
	}
}

// Shutdown stops the pool: workers finish the task they are on and never
// pick another, then every queued or waiting task is abandoned with its
// cleanup callbacks run. Fences among the abandoned still close their scope
// brackets, so WaitIdle callers unblock. Idempotent.
func (e *Executor) Shutdown() {
	e.shutdown.Do(func() {
		e.down.Store(true)
		e.cancel()
		close(e.downCh)
		e.poller.stopAndDrain()
		e.wg.Wait()

		// Workers are gone; discards run single-threaded from here.
		for _, w := range e.workers {
			w.discardQueue()
		}
		e.mailbox.Discard()

		s := e.Stats()
		e.log.Debug("Executor stopped.",
			"submissions", s.Submissions,
			"flushes", s.Flushes,
			"steals", s.Steals,
			"parks", s.Parks,
		)
	})
}
