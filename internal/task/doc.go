// Package task defines the scheduling primitives of the engine: the Task
// itself with its dependency counters and completion fan-out, the intrusive
// List used as a worker run queue, the lock-free Slist used as a cross-thread
// mailbox, the Scope that tracks failure and idleness for a group of tasks,
// and the Submission that stages newly built tasks for hand-off to the
// executor.
//
// Ownership rules are strict: a task is linked into exactly one list at any
// instant, and transferring a task between lists transfers its intrusive
// pointer rather than copying it. The executor package relies on these rules
// to move whole chains of tasks between goroutines without locking per task.
package task
