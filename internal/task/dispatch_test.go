package task

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchGrid(t *testing.T) {
	t.Run("coords round-trip through linear indices", func(t *testing.T) {
		grid := DispatchGrid{4, 3, 2}
		require.Equal(t, 24, grid.Total())

		for i := uint32(0); i < 24; i++ {
			c := grid.Coords(i)
			back := (c[2]*grid[1]+c[1])*grid[0] + c[0]
			assert.Equal(t, i, back)
			assert.Less(t, c[0], grid[0])
			assert.Less(t, c[1], grid[1])
			assert.Less(t, c[2], grid[2])
		}
	})

	t.Run("empty dimension empties the grid", func(t *testing.T) {
		assert.Equal(t, 0, DispatchGrid{0, 5, 5}.Total())
		assert.Equal(t, 0, DispatchGrid{5, 5, 0}.Total())
	})
}

func TestDispatchFanOut(t *testing.T) {
	noopTile := func(ctx context.Context, tile *Tile) error { return nil }

	t.Run("issues up to two slices per worker", func(t *testing.T) {
		scope := NewScope("grid")
		d := NewDispatch(scope, "mul", DispatchGrid{4, 1, 1}, 0, noopTile)

		var fanout List
		env := Env{Worker: 0, Workers: 2, Fanout: &fanout}
		done, err := d.Execute(context.Background(), &env)

		require.NoError(t, err)
		assert.False(t, done, "first pass only fans out")
		assert.Equal(t, 4, fanout.Len())
		assert.Equal(t, int32(4), d.Pending(), "dispatch joins its slices")

		next := uint32(0)
		for s := fanout.PopFront(); s != nil; s = fanout.PopFront() {
			assert.Equal(t, KindDispatchSlice, s.Kind())
			assert.Equal(t, "mul", s.Name())
			begin, end := s.SliceRange()
			assert.Equal(t, next, begin, "slices cover the grid contiguously")
			assert.Equal(t, begin+1, end)
			next = end
		}
		assert.Equal(t, uint32(4), next)
	})

	t.Run("uneven grids put the remainder in the leading slices", func(t *testing.T) {
		scope := NewScope("grid")
		d := NewDispatch(scope, "mul", DispatchGrid{10, 1, 1}, 0, noopTile)

		var fanout List
		done, err := d.Execute(context.Background(), &Env{Workers: 2, Fanout: &fanout})

		require.NoError(t, err)
		require.False(t, done)

		var sizes []uint32
		for s := fanout.PopFront(); s != nil; s = fanout.PopFront() {
			begin, end := s.SliceRange()
			sizes = append(sizes, end-begin)
		}
		assert.Equal(t, []uint32{3, 3, 2, 2}, sizes)
	})

	t.Run("empty grid retires on the first pass", func(t *testing.T) {
		scope := NewScope("grid")
		d := NewDispatch(scope, "mul", DispatchGrid{0, 8, 8}, 0, noopTile)

		var fanout List
		done, err := d.Execute(context.Background(), &Env{Workers: 4, Fanout: &fanout})

		require.NoError(t, err)
		assert.True(t, done)
		assert.True(t, fanout.Empty())
		assert.Equal(t, int32(0), d.Pending())
	})
}

func TestDispatchCompletion(t *testing.T) {
	t.Run("slices execute every tile once and re-ready the dispatch", func(t *testing.T) {
		scope := NewScope("grid")
		grid := DispatchGrid{3, 2, 1}

		var seen [6]atomic.Int32
		d := NewDispatch(scope, "fill", grid, 0, func(ctx context.Context, tile *Tile) error {
			seen[tile.Index].Add(1)
			assert.Equal(t, grid, tile.Grid)
			assert.Equal(t, grid.Coords(tile.Index), tile.ID)
			assert.Equal(t, 3, tile.Worker)
			return nil
		})

		var fanout List
		env := Env{Worker: 3, Workers: 1, Fanout: &fanout}
		done, err := d.Execute(context.Background(), &env)
		require.NoError(t, err)
		require.False(t, done)
		require.Equal(t, 2, fanout.Len(), "one worker fans out into two slices")

		var ready List
		for s := fanout.PopFront(); s != nil; s = fanout.PopFront() {
			sliceDone, sliceErr := s.Execute(context.Background(), &env)
			require.NoError(t, sliceErr)
			require.True(t, sliceDone)
			s.Complete(&ready)
		}

		require.Same(t, d, ready.PopFront(), "last slice re-readies the dispatch")
		require.True(t, ready.Empty())
		assert.Equal(t, int32(0), d.Pending())

		done, err = d.Execute(context.Background(), &env)
		require.NoError(t, err)
		assert.True(t, done, "second pass retires the dispatch")
		d.Complete(&ready)

		for i := range seen {
			assert.Equal(t, int32(1), seen[i].Load(), "tile %d runs exactly once", i)
		}
		stats := scope.ConsumeStatistics()
		assert.Equal(t, uint64(3), stats.TasksExecuted, "two slices plus the dispatch")
		assert.Equal(t, uint64(2), stats.SlicesExecuted)
	})

	t.Run("tile scratch is capped to the dispatch reservation", func(t *testing.T) {
		scope := NewScope("grid")
		d := NewDispatch(scope, "scratch", DispatchGrid{1, 1, 1}, 8, func(ctx context.Context, tile *Tile) error {
			assert.Len(t, tile.Scratch, 8)
			return nil
		})

		var fanout List
		env := Env{Workers: 1, Scratch: make([]byte, 64), Fanout: &fanout}
		done, err := d.Execute(context.Background(), &env)
		require.NoError(t, err)
		require.False(t, done)

		s := fanout.PopFront()
		require.NotNil(t, s)
		_, err = s.Execute(context.Background(), &env)
		require.NoError(t, err)
	})
}
