package registry

import (
	"sort"
)

// Module is the interface a kernel package implements to be compiled into
// the application.
type Module interface {
	Register(r *Registry)
}

// Registry holds the kernel handlers for a single application instance.
type Registry struct {
	kernels map[string]*RegisteredKernel
	tiles   map[string]*RegisteredTileKernel
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		kernels: make(map[string]*RegisteredKernel),
		tiles:   make(map[string]*RegisteredTileKernel),
	}
}

// Kernel looks up a call kernel by the name grids use.
func (r *Registry) Kernel(name string) (*RegisteredKernel, bool) {
	k, ok := r.kernels[name]
	return k, ok
}

// TileKernel looks up a dispatch tile kernel by the name grids use.
func (r *Registry) TileKernel(name string) (*RegisteredTileKernel, bool) {
	k, ok := r.tiles[name]
	return k, ok
}

// KernelNames returns the registered call kernel names, sorted for stable
// error messages.
func (r *Registry) KernelNames() []string {
	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TileKernelNames returns the registered tile kernel names, sorted.
func (r *Registry) TileKernelNames() []string {
	names := make([]string, 0, len(r.tiles))
	for name := range r.tiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
