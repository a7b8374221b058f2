// Package schema declares the HCL block structures a grid file is decoded
// into. These structs stay HCL-shaped; the hclgrid loader translates them
// into the format-agnostic config model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Arguments is the raw content of an 'arguments' block. It is kept as an
// undecoded body so kernel inputs can be bound lazily against the kernel's
// own Go struct.
type Arguments struct {
	Body hcl.Body `hcl:",remain"`
}

// Settings pins engine knobs inside the grid file. Every attribute is
// optional; nil means the application default applies.
type Settings struct {
	Workers             *int    `hcl:"workers,optional"`
	TopologyMode        *string `hcl:"topology_mode,optional"`
	TopologyMaxGroups   *int    `hcl:"topology_max_groups,optional"`
	DeferWorkerStartup  *bool   `hcl:"defer_worker_startup,optional"`
	DedicatedWaitThread *bool   `hcl:"dedicated_wait_thread,optional"`
	WorkerLocalMemory   *int    `hcl:"worker_local_memory,optional"`
	FlushOrder          *string `hcl:"flush_order,optional"`
}

// Semaphore declares a named timeline semaphore.
type Semaphore struct {
	Name    string `hcl:"name,label"`
	Initial uint64 `hcl:"initial,optional"`
}

// Call is a single kernel invocation.
type Call struct {
	Name      string     `hcl:"name,label"`
	Kernel    string     `hcl:"kernel"`
	Arguments *Arguments `hcl:"arguments,block"`
	DependsOn []string   `hcl:"depends_on,optional"`
}

// Barrier joins its dependencies and fans out to its dependents without
// running any user code.
type Barrier struct {
	Name      string   `hcl:"name,label"`
	DependsOn []string `hcl:"depends_on,optional"`
}

// Dispatch runs a tile kernel once per workgroup of a 1-3 dimensional grid.
// Omitted trailing dimensions default to 1.
type Dispatch struct {
	Name        string     `hcl:"name,label"`
	Kernel      string     `hcl:"kernel"`
	Grid        []uint32   `hcl:"grid"`
	LocalMemory *int       `hcl:"local_memory,optional"`
	Arguments   *Arguments `hcl:"arguments,block"`
	DependsOn   []string   `hcl:"depends_on,optional"`
}

// Fence advances a semaphore once everything it depends on has retired.
type Fence struct {
	Name      string   `hcl:"name,label"`
	Semaphore string   `hcl:"semaphore"`
	Value     uint64   `hcl:"value"`
	DependsOn []string `hcl:"depends_on,optional"`
}

// Await gates its dependents on a semaphore reaching a value.
type Await struct {
	Name      string `hcl:"name,label"`
	Semaphore string `hcl:"semaphore"`
	Value     uint64 `hcl:"value"`
}

// Grid is the top-level structure of a grid file.
type Grid struct {
	Settings   *Settings    `hcl:"settings,block"`
	Semaphores []*Semaphore `hcl:"semaphore,block"`
	Calls      []*Call      `hcl:"call,block"`
	Barriers   []*Barrier   `hcl:"barrier,block"`
	Dispatches []*Dispatch  `hcl:"dispatch,block"`
	Fences     []*Fence     `hcl:"fence,block"`
	Awaits     []*Await     `hcl:"await,block"`
	Body       hcl.Body     `hcl:",remain"`
}
