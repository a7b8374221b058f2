package hclgrid

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/taskgridgo/internal/ctxlog"
)

// Converter binds grid argument expressions to kernel input structs. It is
// the HCL implementation of config.ArgDecoder.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeArgs evaluates the argument expressions and populates the kernel's
// input struct through its tggo field tags. Fields the grid does not set
// keep whatever defaults the kernel's NewInput seeded; argument names that
// match no field are errors so typos surface at build time.
func (c *Converter) DecodeArgs(ctx context.Context, inputStruct any, args map[string]hcl.Expression) error {
	logger := ctxlog.FromContext(ctx)

	structVal := reflect.ValueOf(inputStruct)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("input struct must be a non-nil pointer, got %T", inputStruct)
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	fields := make(map[string]reflect.Value, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get("tggo"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		fields[name] = structVal.Field(i)
	}

	for name, expr := range args {
		fieldVal, ok := fields[name]
		if !ok {
			return fmt.Errorf("unsupported argument %q", name)
		}
		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("argument %q: %w", name, diags)
		}
		if err := decode(val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
		logger.Debug("Decoded kernel argument.", "argument", name)
	}
	return nil
}

// decode converts a cty value into the Go target, going through an implied
// type conversion first so number/string literals bind to the exact field
// type the kernel declared.
func decode(val cty.Value, target any) error {
	impliedType, err := gocty.ImpliedType(reflect.ValueOf(target).Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, target)
	}
	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}
