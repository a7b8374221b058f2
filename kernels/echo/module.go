package echo

import (
	"context"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the echo kernel.
type Input struct {
	Message string `tggo:"message"`
}

// OnRunEcho logs the configured message. Grids use it as a cheap, visible
// marker node.
func OnRunEcho(ctx context.Context, input *Input) error {
	ctxlog.FromContext(ctx).Info("Echo.", "message", input.Message)
	return nil
}

// Register registers the kernel with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("echo", &registry.RegisteredKernel{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunEcho,
	})
}
