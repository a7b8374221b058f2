package testutil

import "github.com/vk/taskgridgo/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single call kernel or tile kernel.
type SimpleModule struct {
	KernelName string
	Kernel     *registry.RegisteredKernel

	TileKernelName string
	TileKernel     *registry.RegisteredTileKernel
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.KernelName != "" && m.Kernel != nil {
		r.RegisterKernel(m.KernelName, m.Kernel)
	}
	if m.TileKernelName != "" && m.TileKernel != nil {
		r.RegisterTileKernel(m.TileKernelName, m.TileKernel)
	}
}
