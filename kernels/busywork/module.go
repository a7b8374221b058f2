package busywork

import (
	"context"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the busywork kernel.
type Input struct {
	Iterations int `tggo:"iterations"`
}

// OnRunBusywork burns cpu for the configured iteration count. The xorshift
// accumulator keeps the loop from being optimized away and doubles as a
// deterministic checksum in debug logs.
func OnRunBusywork(ctx context.Context, input *Input) error {
	acc := uint64(0x9e3779b97f4a7c15)
	for i := 0; i < input.Iterations; i++ {
		acc ^= acc << 13
		acc ^= acc >> 7
		acc ^= acc << 17
		if i%1024 == 1023 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	ctxlog.FromContext(ctx).Debug("Busywork finished.", "iterations", input.Iterations, "checksum", acc)
	return nil
}

// Register registers the kernel with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("busywork", &registry.RegisteredKernel{
		NewInput: func() any { return &Input{Iterations: 1000} },
		Fn:       OnRunBusywork,
	})
}
