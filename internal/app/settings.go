package app

import (
	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/task"
)

// engineConfig is the resolved set of executor knobs for one run, after grid
// settings blocks have been merged over the application defaults.
type engineConfig struct {
	workers             int
	topologyMode        string
	topologyMaxGroups   int
	deferWorkerStartup  bool
	dedicatedWaitThread bool
	workerLocalMemory   int
	flushOrder          string
}

// resolveEngine merges grid settings over the app defaults. All grids of a
// run share one executor, so each knob takes its first declaration in grid
// load order; later declarations are ignored with a warning.
func (a *App) resolveEngine(models []*config.Model) engineConfig {
	eng := engineConfig{
		workers:             a.config.Workers,
		topologyMode:        a.config.TopologyMode,
		topologyMaxGroups:   a.config.TopologyMaxGroups,
		deferWorkerStartup:  a.config.DeferWorkerStartup,
		dedicatedWaitThread: a.config.DedicatedWaitThread,
		workerLocalMemory:   a.config.WorkerLocalMemory,
		flushOrder:          a.config.FlushOrder,
	}

	pinned := map[string]string{}
	for _, m := range models {
		s := m.Settings
		if s == nil {
			continue
		}
		pin := func(knob string, set func()) {
			if winner, taken := pinned[knob]; taken {
				a.logger.Warn("Ignoring grid engine setting; an earlier grid already set it.",
					"setting", knob, "grid", m.Name, "set_by", winner)
				return
			}
			pinned[knob] = m.Name
			set()
		}
		if s.Workers != nil {
			pin("workers", func() { eng.workers = *s.Workers })
		}
		if s.TopologyMode != nil {
			pin("topology_mode", func() { eng.topologyMode = *s.TopologyMode })
		}
		if s.TopologyMaxGroups != nil {
			pin("topology_max_groups", func() { eng.topologyMaxGroups = *s.TopologyMaxGroups })
		}
		if s.DeferWorkerStartup != nil {
			pin("defer_worker_startup", func() { eng.deferWorkerStartup = *s.DeferWorkerStartup })
		}
		if s.DedicatedWaitThread != nil {
			pin("dedicated_wait_thread", func() { eng.dedicatedWaitThread = *s.DedicatedWaitThread })
		}
		if s.WorkerLocalMemory != nil {
			pin("worker_local_memory", func() { eng.workerLocalMemory = *s.WorkerLocalMemory })
		}
		if s.FlushOrder != nil {
			pin("flush_order", func() { eng.flushOrder = *s.FlushOrder })
		}
	}
	return eng
}

// taskFlushOrder maps the configuration string onto the mailbox constant.
// The loader validated the value; anything else falls back to FIFO.
func taskFlushOrder(s string) task.FlushOrder {
	if s == "lifo" {
		return task.FlushLIFO
	}
	return task.FlushFIFO
}
