// Package semaphore implements timeline semaphores: monotonically advancing
// uint64 payloads that producers signal and consumers wait on.
//
// Semaphores bridge task graphs and the outside world. A fence task advances
// a semaphore when its submission retires; wait tasks and blocking callers
// gate on a semaphore reaching a target value. Timepoints convert blocking
// waits into callbacks so executor workers never sleep on a semaphore.
package semaphore
