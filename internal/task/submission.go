package task

// Submission stages newly built tasks for hand-off to the executor: a
// ready list for tasks that can run immediately and a waiting list for
// tasks gated on an external timeline. It is a transient builder, not
// persisted beyond executor consumption.
type Submission struct {
	// Ready holds tasks whose dependency counters were already zero at
	// enqueue time, in enqueue order.
	Ready List
	// Waiting holds wait tasks to be registered with the executor's wait
	// multiplexer instead of a run queue.
	Waiting List
}

// Enqueue classifies one newly constructed task. Enqueue order is free:
// readiness is judged purely from the task's own counter and kind, so a task
// may be enqueued before or after the tasks depending on it. Tasks with
// unresolved predecessors belong to no list yet; completion fan-out delivers
// them when their last predecessor retires.
func (s *Submission) Enqueue(t *Task) {
	if t.pending.Load() > 0 {
		return
	}
	if t.kind == KindWait {
		s.Waiting.PushBack(t)
		return
	}
	s.Ready.PushBack(t)
}

// Empty reports whether both lists are empty.
func (s *Submission) Empty() bool {
	return s.Ready.Empty() && s.Waiting.Empty()
}

// Discard abandons all staged tasks, transitively covering their dependents.
// Producers call it when graph construction fails after tasks were already
// enqueued; a submission accepted by the executor is discarded by the
// executor instead.
func (s *Submission) Discard() {
	s.Ready.Discard()
	s.Waiting.Discard()
}
