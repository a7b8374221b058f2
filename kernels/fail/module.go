package fail

import (
	"context"
	"errors"

	"github.com/vk/taskgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the fail kernel.
type Input struct {
	Message string `tggo:"message"`
}

// OnRunFail returns the configured message as an error. Grids use it to
// exercise failure propagation and discard behavior.
func OnRunFail(ctx context.Context, input *Input) error {
	return errors.New(input.Message)
}

// Register registers the kernel with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("fail", &registry.RegisteredKernel{
		NewInput: func() any { return &Input{Message: "kernel failed deliberately"} },
		Fn:       OnRunFail,
	})
}
