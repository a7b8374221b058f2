package builder

import (
	"github.com/vk/taskgridgo/internal/task"
)

// sinkFenceName is the synthetic fence appended behind every grid's sinks.
const sinkFenceName = "_finish"

// linkTasks wires depends_on edges into the task graph. References were
// validated up front, so lookups here cannot miss.
func (b *build) linkTasks() error {
	forEachNode(b.model, func(name string, deps []string) {
		t := b.tasks[name]
		for _, dep := range deps {
			t.DependOn(b.tasks[dep])
			b.hasDeps[dep] = true
		}
	})
	return nil
}

// fenceSinks appends a fence depending on every sink so the scope bracket
// spans the whole grid. Without it a grid with no user fences would report
// idle immediately.
func (b *build) fenceSinks() {
	if len(b.order) == 0 {
		return
	}
	fence := task.NewFence(b.scope, sinkFenceName, nil, 0)
	for _, t := range b.order {
		if !b.hasDeps[t.Name()] {
			fence.DependOn(t)
		}
	}
	b.order = append(b.order, fence)
}
