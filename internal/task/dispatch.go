package task

import (
	"context"
	"fmt"
)

// DispatchGrid is the workgroup count of a dispatch along x, y and z.
type DispatchGrid [3]uint32

// Total returns the tile count of the grid.
func (g DispatchGrid) Total() int {
	return int(g[0]) * int(g[1]) * int(g[2])
}

// Coords converts a linear tile index back into grid coordinates.
func (g DispatchGrid) Coords(i uint32) [3]uint32 {
	x := i % g[0]
	y := (i / g[0]) % g[1]
	z := i / (g[0] * g[1])
	return [3]uint32{x, y, z}
}

// Tile identifies one workgroup invocation of a dispatch grid.
type Tile struct {
	// ID is the workgroup coordinate within Grid.
	ID [3]uint32
	// Grid is the full workgroup count of the owning dispatch.
	Grid DispatchGrid
	// Index is the linearized tile id: (z*Grid[1] + y)*Grid[0] + x.
	Index uint32
	// Scratch is worker-local memory sized to the dispatch's reservation.
	// Contents persist between tiles run by the same worker and carry no
	// defined value on entry.
	Scratch []byte
	// Worker is the executing worker index.
	Worker int
}

// TileFn is the body invoked once per tile of a dispatch grid.
type TileFn func(ctx context.Context, tile *Tile) error

type dispatchState struct {
	grid    DispatchGrid
	fn      TileFn
	scratch int  // bytes of worker-local memory each tile receives
	issued  bool // set once the grid has fanned out into slices
}

type sliceState struct {
	dispatch *Task
	begin    uint32 // first linear tile index, inclusive
	end      uint32 // last linear tile index, exclusive
}

// slicesPerWorker controls dispatch fan-out granularity: issuing more slices
// than workers leaves ranges for fast workers to steal.
const slicesPerWorker = 2

// NewDispatch builds the root task of a parallel grid dispatch. fn runs once
// per tile; scratchBytes is the worker-local memory reservation each tile
// receives. Reservations are validated against the executor's budget when
// the graph is built, not here.
func NewDispatch(scope *Scope, name string, grid DispatchGrid, scratchBytes int, fn TileFn) *Task {
	return &Task{
		kind:  KindDispatch,
		name:  name,
		scope: scope,
		dispatch: &dispatchState{
			grid:    grid,
			fn:      fn,
			scratch: scratchBytes,
		},
	}
}

// Grid returns a dispatch task's workgroup counts.
func (t *Task) Grid() DispatchGrid {
	if t.dispatch == nil {
		return DispatchGrid{}
	}
	return t.dispatch.grid
}

// ScratchBytes returns a dispatch task's worker-local memory reservation.
func (t *Task) ScratchBytes() int {
	if t.dispatch == nil {
		return 0
	}
	return t.dispatch.scratch
}

// SliceRange returns the linear tile range a dispatch slice covers.
func (t *Task) SliceRange() (begin, end uint32) {
	if t.slice == nil {
		return 0, 0
	}
	return t.slice.begin, t.slice.end
}

// executeDispatch fans the grid out into slices on the first pass and
// retires the dispatch on the second, after the last slice completed and
// re-readied it through the pending counter.
func (t *Task) executeDispatch(env *Env) (done bool, err error) {
	d := t.dispatch
	if d.issued {
		return true, nil
	}
	d.issued = true

	total := d.grid.Total()
	if total == 0 {
		return true, nil
	}

	slices := env.Workers * slicesPerWorker
	if slices < 1 {
		slices = 1
	}
	if total < slices {
		slices = total
	}

	// Tiles divide as evenly as possible; the first rem slices carry one
	// extra tile.
	per := total / slices
	rem := total % slices
	begin := 0
	for i := 0; i < slices; i++ {
		count := per
		if i < rem {
			count++
		}
		s := &Task{
			kind:  KindDispatchSlice,
			name:  t.name,
			scope: t.scope,
			slice: &sliceState{
				dispatch: t,
				begin:    uint32(begin),
				end:      uint32(begin + count),
			},
		}
		begin += count
		// The dispatch joins its own slices: it re-enters the scheduler
		// when the last one completes.
		t.RetainDependency()
		s.completion = []*Task{t}
		env.Fanout.PushBack(s)
	}
	return false, nil
}

// executeSlice invokes the dispatch body once per tile in the slice range.
func (t *Task) executeSlice(ctx context.Context, env *Env) error {
	d := t.slice.dispatch.dispatch
	scratch := env.Scratch
	if d.scratch <= len(scratch) {
		scratch = scratch[:d.scratch]
	}
	for i := t.slice.begin; i < t.slice.end; i++ {
		tile := Tile{
			ID:      d.grid.Coords(i),
			Grid:    d.grid,
			Index:   i,
			Scratch: scratch,
			Worker:  env.Worker,
		}
		if err := d.fn(ctx, &tile); err != nil {
			return fmt.Errorf("tile [%d,%d,%d]: %w", tile.ID[0], tile.ID[1], tile.ID[2], err)
		}
	}
	return nil
}
