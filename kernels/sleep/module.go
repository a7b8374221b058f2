package sleep

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the sleep kernel.
type Input struct {
	Duration string `tggo:"duration"`
}

// OnRunSleep parks the task for the configured duration, waking early when
// the executor shuts down.
func OnRunSleep(ctx context.Context, input *Input) error {
	d, err := time.ParseDuration(input.Duration)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", input.Duration, err)
	}
	ctxlog.FromContext(ctx).Debug("Sleeping.", "duration", d)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register registers the kernel with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKernel("sleep", &registry.RegisteredKernel{
		NewInput: func() any { return &Input{Duration: "1ms"} },
		Fn:       OnRunSleep,
	})
}
