package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expiredContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Hour))
	t.Cleanup(cancel)
	return ctx
}

func TestScopeIdleTracking(t *testing.T) {
	t.Run("new scope is idle", func(t *testing.T) {
		s := NewScope("idle")
		assert.True(t, s.IsIdle())
		assert.NoError(t, s.WaitIdle(context.Background()))
	})

	t.Run("idle only when every begin has a matching end", func(t *testing.T) {
		s := NewScope("brackets")
		s.Begin()
		s.Begin()
		assert.False(t, s.IsIdle())
		s.End()
		assert.False(t, s.IsIdle())
		s.End()
		assert.True(t, s.IsIdle())
	})

	t.Run("wait idle blocks until the last end", func(t *testing.T) {
		s := NewScope("wait")
		s.Begin()

		done := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			done <- s.WaitIdle(ctx)
		}()

		time.Sleep(10 * time.Millisecond)
		s.End()

		require.NoError(t, <-done)
	})

	t.Run("expired deadline polls without blocking", func(t *testing.T) {
		s := NewScope("poll")
		assert.NoError(t, s.WaitIdle(expiredContext(t)))

		s.Begin()
		err := s.WaitIdle(expiredContext(t))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		s.End()
	})

	t.Run("deadline exceeded is recoverable", func(t *testing.T) {
		s := NewScope("recover")
		s.Begin()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, s.WaitIdle(ctx), context.DeadlineExceeded)

		s.End()
		assert.NoError(t, s.WaitIdle(context.Background()))
	})

	t.Run("unbalanced end panics", func(t *testing.T) {
		s := NewScope("unbalanced")
		assert.Panics(t, func() { s.End() })
	})

	t.Run("closing a busy scope panics", func(t *testing.T) {
		s := NewScope("busy")
		s.Begin()
		assert.Panics(t, func() { s.Close() })
		s.End()
		assert.NotPanics(t, func() { s.Close() })
	})
}

func TestScopeFailureStatus(t *testing.T) {
	t.Run("first failure wins", func(t *testing.T) {
		s := NewScope("failure")
		first := errors.New("first")
		second := errors.New("second")

		s.Fail(first)
		s.Fail(second)

		assert.True(t, s.HasFailed())
		assert.ErrorIs(t, s.Err(), first)
	})

	t.Run("consume status returns the error exactly once", func(t *testing.T) {
		s := NewScope("consume")
		boom := errors.New("boom")
		s.Fail(boom)

		require.ErrorIs(t, s.ConsumeStatus(), boom)
		assert.NoError(t, s.ConsumeStatus())
		assert.False(t, s.HasFailed())
	})

	t.Run("concurrent failures keep exactly one", func(t *testing.T) {
		s := NewScope("race")
		errs := make([]error, 16)
		for i := range errs {
			errs[i] = errors.New("worker failure")
		}

		var wg sync.WaitGroup
		for _, err := range errs {
			wg.Add(1)
			go func(err error) {
				defer wg.Done()
				s.Fail(err)
			}(err)
		}
		wg.Wait()

		stored := s.ConsumeStatus()
		require.Error(t, stored)
		count := 0
		for _, err := range errs {
			if errors.Is(stored, err) {
				count++
			}
		}
		assert.Equal(t, 1, count, "exactly one of the racing errors should stick")
	})

	t.Run("nil failure is ignored", func(t *testing.T) {
		s := NewScope("nil")
		s.Fail(nil)
		assert.False(t, s.HasFailed())
	})

	t.Run("abort stores the abandoned status", func(t *testing.T) {
		s := NewScope("abort")
		s.Abort()
		assert.ErrorIs(t, s.ConsumeStatus(), ErrAbandoned)
	})
}

func TestScopeStatistics(t *testing.T) {
	s := NewScope("stats")
	a := NewCall(s, "a", noop)
	b := NewCall(s, "b", noop)
	b.DependOn(a)

	var ready List
	a.Complete(&ready)
	require.Same(t, b, ready.Front())
	ready.Discard()

	stats := s.ConsumeStatistics()
	assert.Equal(t, uint64(1), stats.TasksExecuted)
	assert.Equal(t, uint64(1), stats.TasksDiscarded)

	// Consuming resets the counters.
	stats = s.ConsumeStatistics()
	assert.Equal(t, Statistics{}, stats)
}

func TestScopeNameTruncation(t *testing.T) {
	long := "this-scope-name-is-far-longer-than-the-limit-allows"
	s := NewScope(long)
	assert.Len(t, s.Name(), scopeNameLimit)
	assert.Equal(t, long[:scopeNameLimit], s.Name())
}
