// Package executor schedules task graphs onto a topology-shaped worker pool.
//
// Each worker owns a run queue and drains it front-first, so work a retiring
// task just made ready runs while its inputs are still warm. New submissions
// land in a shared lock-free mailbox; idle workers flush it, then steal the
// tail half of a sibling's queue, preferring siblings in the same cache
// domain, and finally park until woken. Wait tasks never occupy a worker:
// a poller converts timeline readiness into mailbox deliveries.
package executor
