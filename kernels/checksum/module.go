package checksum

import (
	"context"
	"encoding/binary"

	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the checksum tile kernel.
type Input struct {
	Seed int `tggo:"seed"`
}

// OnRunChecksumTile fills the tile's worker-local scratch with a pattern
// derived from the seed and tile index, then folds it into an accumulator
// written back to the scratch head.
func OnRunChecksumTile(ctx context.Context, input *Input, tile *task.Tile) error {
	pattern := uint64(input.Seed)<<32 | uint64(tile.Index)
	for i := 0; i+8 <= len(tile.Scratch); i += 8 {
		binary.LittleEndian.PutUint64(tile.Scratch[i:], pattern+uint64(i))
	}
	var acc uint64
	for i := 0; i+8 <= len(tile.Scratch); i += 8 {
		acc = acc*31 + binary.LittleEndian.Uint64(tile.Scratch[i:])
	}
	if len(tile.Scratch) >= 8 {
		binary.LittleEndian.PutUint64(tile.Scratch, acc)
	}
	return nil
}

// Register registers the tile kernel with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTileKernel("checksum", &registry.RegisteredTileKernel{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunChecksumTile,
	})
}
