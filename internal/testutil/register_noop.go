package testutil

import (
	"context"

	"github.com/vk/taskgridgo/internal/registry"
)

// NoOpModule registers a single "noop" kernel that takes no arguments and
// does nothing. It's useful for tests that should fail before execution
// begins but still need a grid whose kernels resolve.
type NoOpModule struct{}

// Register registers the "noop" kernel.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterKernel("noop", &registry.RegisteredKernel{
		Fn: func(context.Context, *struct{}) error { return nil },
	})
}
