package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/taskgridgo/internal/task"
)

// createTasks materializes one task per block. Kernel arguments are decoded
// here, once, so the closures workers run carry plain structs.
func (b *build) createTasks(ctx context.Context) error {
	for _, c := range b.model.Calls {
		kernel, ok := b.opts.Registry.Kernel(c.Kernel)
		if !ok {
			return fmt.Errorf("call %q: unknown kernel %q (registered: %s)",
				c.Name, c.Kernel, strings.Join(b.opts.Registry.KernelNames(), ", "))
		}
		input, err := b.decodeInput(ctx, kernel.NewInput, c.Arguments)
		if err != nil {
			return fmt.Errorf("call %q: %w", c.Name, err)
		}
		b.add(c.Name, task.NewCall(b.scope, c.Name, func(ctx context.Context) error {
			return kernel.Call(ctx, input)
		}))
	}

	for _, bar := range b.model.Barriers {
		b.add(bar.Name, task.NewBarrier(b.scope, bar.Name))
	}

	for _, d := range b.model.Dispatches {
		kernel, ok := b.opts.Registry.TileKernel(d.Kernel)
		if !ok {
			return fmt.Errorf("dispatch %q: unknown tile kernel %q (registered: %s)",
				d.Name, d.Kernel, strings.Join(b.opts.Registry.TileKernelNames(), ", "))
		}
		if d.LocalMemory > b.opts.MemoryBudget {
			return fmt.Errorf("dispatch %q: local_memory %d exceeds the worker budget %d",
				d.Name, d.LocalMemory, b.opts.MemoryBudget)
		}
		input, err := b.decodeInput(ctx, kernel.NewInput, d.Arguments)
		if err != nil {
			return fmt.Errorf("dispatch %q: %w", d.Name, err)
		}
		grid := task.DispatchGrid{d.Grid[0], d.Grid[1], d.Grid[2]}
		b.add(d.Name, task.NewDispatch(b.scope, d.Name, grid, d.LocalMemory,
			func(ctx context.Context, tile *task.Tile) error {
				return kernel.Call(ctx, input, tile)
			}))
	}

	for _, f := range b.model.Fences {
		b.add(f.Name, task.NewFence(b.scope, f.Name, b.sems[f.Semaphore], f.Value))
	}

	for _, a := range b.model.Awaits {
		b.add(a.Name, task.NewWait(b.scope, a.Name, b.sems[a.Semaphore], a.Value))
	}

	return nil
}

// decodeInput builds and fills a kernel input struct from the block's
// argument expressions. Kernels without inputs reject any arguments.
func (b *build) decodeInput(ctx context.Context, newInput func() any, args map[string]hcl.Expression) (any, error) {
	if newInput == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("kernel takes no arguments")
		}
		return nil, nil
	}
	input := newInput()
	if err := b.opts.Decoder.DecodeArgs(ctx, input, args); err != nil {
		return nil, err
	}
	return input, nil
}
