//go:build linux

package executor

import (
	"log/slog"
	"runtime"

	"golang.org/x/sys/unix"
)

// pinThread binds the calling goroutine's OS thread to a processor. Affinity
// is advisory: failure logs and moves on, it never stops a worker. The thread
// stays locked for the life of the worker so the affinity keeps meaning
// something.
func pinThread(processor int, log *slog.Logger) {
	if processor < 0 {
		return
	}
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(processor)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		log.Debug("Processor affinity not applied.", "processor", processor, "error", err)
	}
}
