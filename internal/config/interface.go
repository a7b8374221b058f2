package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
)

// Loader is the interface for a format-specific grid loader.
type Loader interface {
	// Load reads grid files from the given paths and translates each into
	// the format-agnostic model. A directory yields one model per file.
	Load(ctx context.Context, paths ...string) ([]*Model, error)
}

// ArgDecoder binds raw argument expressions to a kernel's Go input struct,
// bridging the configuration format and the module system.
type ArgDecoder interface {
	DecodeArgs(ctx context.Context, inputStruct any, args map[string]hcl.Expression) error
}
