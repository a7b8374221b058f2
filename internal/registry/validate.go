package registry

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/taskgridgo/internal/task"
)

var (
	ctxType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType  = reflect.TypeOf((*error)(nil)).Elem()
	tileType = reflect.TypeOf((*task.Tile)(nil))
)

// validateKernelFn checks a handler's shape at registration time: argCount
// inputs starting with a context and ending (for tile kernels) with a tile
// pointer, a pointer input struct matching NewInput, and a single error
// result.
func validateKernelFn(fn any, newInput func() any, argCount int) error {
	if fn == nil {
		return fmt.Errorf("handler function is nil")
	}
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %s", fnType)
	}
	if fnType.NumIn() != argCount {
		return fmt.Errorf("handler must take %d parameters, takes %d", argCount, fnType.NumIn())
	}
	if fnType.In(0) != ctxType {
		return fmt.Errorf("handler's first parameter must be context.Context, is %s", fnType.In(0))
	}
	if fnType.In(1).Kind() != reflect.Ptr {
		return fmt.Errorf("handler's input parameter must be a struct pointer, is %s", fnType.In(1))
	}
	if argCount == 3 && fnType.In(2) != tileType {
		return fmt.Errorf("handler's tile parameter must be *task.Tile, is %s", fnType.In(2))
	}
	if fnType.NumOut() != 1 || fnType.Out(0) != errType {
		return fmt.Errorf("handler must return exactly one error")
	}
	if newInput != nil {
		got := reflect.TypeOf(newInput())
		if got != fnType.In(1) {
			return fmt.Errorf("NewInput returns %s but handler takes %s", got, fnType.In(1))
		}
	}
	return nil
}
