package executor

import "github.com/vk/taskgridgo/internal/task"

// poller converts wait-task readiness into mailbox deliveries so waits never
// occupy a worker. In dedicated mode registration and delivery run on their
// own goroutine; otherwise registration happens on the submitter and
// delivery on whichever goroutine signals the timeline.
type poller struct {
	e         *Executor
	dedicated bool
	requests  chan *task.Task
	fired     chan *task.Task
	stop      chan struct{}
	done      chan struct{}
}

func newPoller(e *Executor, dedicated bool) *poller {
	p := &poller{
		e:         e,
		dedicated: dedicated,
		stop:      make(chan struct{}),
	}
	if dedicated {
		p.requests = make(chan *task.Task, 64)
		p.fired = make(chan *task.Task, 64)
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// submit routes one wait task to the poller.
func (p *poller) submit(t *task.Task) {
	if !p.dedicated {
		p.register(t)
		return
	}
	select {
	case p.requests <- t:
	case <-p.stop:
		discardOne(t)
	}
}

// register hooks the wait task's condition. Satisfied conditions deliver
// inline. Timeline failures deliver too: the worker surfaces the failure
// through the task's own execution, which keeps a single error path.
func (p *poller) register(t *task.Task) {
	source, value := t.WaitCondition()
	if source == nil {
		// A wait without a timeline is trivially satisfied.
		p.deliver(t)
		return
	}
	source.WhenReached(value, func(error) { p.deliver(t) })
}

// deliver hands a satisfied wait to the pool. In dedicated mode it bounces
// through the poller goroutine; under backpressure it degrades to a direct
// mailbox push, which is always safe.
func (p *poller) deliver(t *task.Task) {
	if p.dedicated {
		select {
		case p.fired <- t:
			return
		default:
		}
	}
	p.e.enqueueReady(t)
}

func (p *poller) run() {
	defer close(p.done)
	for {
		select {
		case t := <-p.requests:
			p.register(t)
		case t := <-p.fired:
			p.e.enqueueReady(t)
		case <-p.stop:
			return
		}
	}
}

// stopAndDrain stops the poller and abandons undelivered tasks. Timepoints
// already registered keep their callbacks; ones that fire after shutdown are
// discarded at the mailbox door by enqueueReady.
func (p *poller) stopAndDrain() {
	close(p.stop)
	if !p.dedicated {
		return
	}
	<-p.done
	for {
		select {
		case t := <-p.requests:
			discardOne(t)
		case t := <-p.fired:
			discardOne(t)
		default:
			return
		}
	}
}

// discardOne abandons a single task with full cleanup semantics.
func discardOne(t *task.Task) {
	var l task.List
	l.PushBack(t)
	l.Discard()
}
