package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Model is the format-agnostic representation of one grid: every block a
// grid file may declare, translated out of its source syntax.
type Model struct {
	// Name identifies the grid in logs and scope names. Loaders derive it
	// from the file name.
	Name string

	Settings   *Settings
	Semaphores []*Semaphore
	Calls      []*Call
	Barriers   []*Barrier
	Dispatches []*Dispatch
	Fences     []*Fence
	Awaits     []*Await
}

// Settings is the grid's engine configuration block. Nil pointers mean the
// grid left the knob to the application defaults.
type Settings struct {
	Workers             *int
	TopologyMode        *string
	TopologyMaxGroups   *int
	DeferWorkerStartup  *bool
	DedicatedWaitThread *bool
	WorkerLocalMemory   *int
	FlushOrder          *string
}

// Semaphore declares a named timeline semaphore with its initial value.
type Semaphore struct {
	Name    string
	Initial uint64
}

// Call is one kernel invocation node.
type Call struct {
	Name      string
	Kernel    string
	Arguments map[string]hcl.Expression
	DependsOn []string
}

// Barrier is a pure join/fan-out node.
type Barrier struct {
	Name      string
	DependsOn []string
}

// Dispatch is a parallel grid invocation of a tile kernel.
type Dispatch struct {
	Name   string
	Kernel string
	Grid   [3]uint32
	// LocalMemory is the per-worker scratch reservation in bytes the tile
	// kernel asks for. Validated against the executor budget at build time.
	LocalMemory int
	Arguments   map[string]hcl.Expression
	DependsOn   []string
}

// Fence advances a semaphore to Value once everything it depends on retired.
type Fence struct {
	Name      string
	Semaphore string
	Value     uint64
	DependsOn []string
}

// Await gates its dependents until a semaphore reaches Value. It consumes no
// worker while pending.
type Await struct {
	Name      string
	Semaphore string
	Value     uint64
}

// NodeCount returns the number of task-producing blocks in the grid.
func (m *Model) NodeCount() int {
	return len(m.Calls) + len(m.Barriers) + len(m.Dispatches) + len(m.Fences) + len(m.Awaits)
}
