package task

import "sync/atomic"

// FlushOrder controls the direction of the chain a Slist flush returns.
type FlushOrder int

const (
	// FlushLIFO returns the chain as accumulated, newest push first. This
	// is the cheapest order and fine for discard paths.
	FlushLIFO FlushOrder = iota
	// FlushFIFO reverses the chain so tasks come out in push order, at the
	// cost of one extra O(n) pass. The executor uses it so submissions keep
	// their fairness.
	FlushFIFO
)

// Slist is a lock-free multi-producer stack of tasks, used as the mailbox by
// which any goroutine hands tasks to the executor or to a worker. Push is
// safe from any number of goroutines; consumers drain only through Flush.
//
// Consumption is a single atomic swap of the whole chain rather than a
// per-node pop, so the classic ABA hazard of CAS stacks does not arise: no
// node observed by a racing push can be re-linked until the flusher owns the
// entire chain.
type Slist struct {
	head atomic.Pointer[Task]
}

// Push links t onto the stack.
func (s *Slist) Push(t *Task) {
	for {
		old := s.head.Load()
		t.setNext(old)
		if s.head.CompareAndSwap(old, t) {
			return
		}
	}
}

// Empty reports whether the stack looked empty at the time of the call.
func (s *Slist) Empty() bool { return s.head.Load() == nil }

// Flush atomically detaches the entire chain and returns it as a list in
// the requested order. Concurrent pushes that lose the race land on the
// fresh empty stack and are picked up by the next flush.
func (s *Slist) Flush(order FlushOrder) List {
	var out List
	head := s.head.Swap(nil)
	if head == nil {
		return out
	}
	out.head = head
	tail := head
	for next := tail.nextTask(); next != nil; next = tail.nextTask() {
		tail = next
	}
	out.tail = tail
	if order == FlushFIFO {
		out.Reverse()
	}
	return out
}

// Discard flushes the stack and abandons every task in it, transitively
// discarding dependents that can never run.
func (s *Slist) Discard() {
	list := s.Flush(FlushLIFO)
	list.Discard()
}
