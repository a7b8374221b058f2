package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vk/taskgridgo/internal/task"
)

// RegisteredKernel holds the compiled Go parts of a call kernel.
type RegisteredKernel struct {
	// NewInput returns a fresh input struct pointer, pre-seeded with the
	// kernel's defaults. Nil for kernels that take no arguments.
	NewInput func() any
	// Fn must be func(ctx context.Context, input *T) error, where *T is the
	// type NewInput returns.
	Fn any
}

// RegisteredTileKernel holds the compiled Go parts of a dispatch tile kernel.
type RegisteredTileKernel struct {
	// NewInput returns a fresh input struct pointer. Nil for kernels that
	// take no arguments.
	NewInput func() any
	// Fn must be func(ctx context.Context, input *T, tile *task.Tile) error.
	Fn any
}

// RegisterKernel registers a Go function for a call kernel name.
func (r *Registry) RegisterKernel(name string, k *RegisteredKernel) {
	if _, exists := r.kernels[name]; exists {
		panic(fmt.Sprintf("kernel with name '%s' already registered", name))
	}
	if err := validateKernelFn(k.Fn, k.NewInput, 2); err != nil {
		panic(fmt.Sprintf("kernel '%s': %v", name, err))
	}
	slog.Debug("Registering kernel handler.", "name", name)
	r.kernels[name] = k
}

// RegisterTileKernel registers a Go function for a dispatch tile kernel name.
func (r *Registry) RegisterTileKernel(name string, k *RegisteredTileKernel) {
	if _, exists := r.tiles[name]; exists {
		panic(fmt.Sprintf("tile kernel with name '%s' already registered", name))
	}
	if err := validateKernelFn(k.Fn, k.NewInput, 3); err != nil {
		panic(fmt.Sprintf("tile kernel '%s': %v", name, err))
	}
	slog.Debug("Registering tile kernel handler.", "name", name)
	r.tiles[name] = k
}

// Call invokes the kernel function with a decoded input struct. A nil input
// passes the zero value of the function's input parameter.
func (k *RegisteredKernel) Call(ctx context.Context, input any) error {
	fn := reflect.ValueOf(k.Fn)
	args := []reflect.Value{reflect.ValueOf(ctx), inputValue(fn, input)}
	return resultError(fn.Call(args))
}

// Call invokes the tile kernel function for one tile of a dispatch grid.
func (k *RegisteredTileKernel) Call(ctx context.Context, input any, tile *task.Tile) error {
	fn := reflect.ValueOf(k.Fn)
	args := []reflect.Value{reflect.ValueOf(ctx), inputValue(fn, input), reflect.ValueOf(tile)}
	return resultError(fn.Call(args))
}

func inputValue(fn reflect.Value, input any) reflect.Value {
	if input == nil {
		return reflect.Zero(fn.Type().In(1))
	}
	return reflect.ValueOf(input)
}

func resultError(results []reflect.Value) error {
	if err := results[0].Interface(); err != nil {
		return err.(error)
	}
	return nil
}
