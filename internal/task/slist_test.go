package task

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlistFlushOrders(t *testing.T) {
	t.Run("fifo flush returns push order", func(t *testing.T) {
		tasks := makeTasks(5)
		var s Slist
		for _, tk := range tasks {
			s.Push(tk)
		}

		l := s.Flush(FlushFIFO)
		assert.Equal(t, []string{"t0", "t1", "t2", "t3", "t4"}, names(&l))
		assert.True(t, s.Empty())
	})

	t.Run("lifo flush returns reverse push order", func(t *testing.T) {
		tasks := makeTasks(5)
		var s Slist
		for _, tk := range tasks {
			s.Push(tk)
		}

		l := s.Flush(FlushLIFO)
		assert.Equal(t, []string{"t4", "t3", "t2", "t1", "t0"}, names(&l))
	})

	t.Run("flush of empty slist is empty", func(t *testing.T) {
		var s Slist
		l := s.Flush(FlushFIFO)
		assert.True(t, l.Empty())
	})
}

func TestSlistConcurrentPush(t *testing.T) {
	for _, order := range []FlushOrder{FlushLIFO, FlushFIFO} {
		order := order
		name := "lifo"
		if order == FlushFIFO {
			name = "fifo"
		}
		t.Run("no task lost or duplicated under "+name+" flush", func(t *testing.T) {
			const producers = 8
			const perProducer = 250

			tasks := makeTasks(producers * perProducer)
			var s Slist

			var wg sync.WaitGroup
			for p := 0; p < producers; p++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for i := 0; i < perProducer; i++ {
						s.Push(tasks[p*perProducer+i])
					}
				}(p)
			}
			wg.Wait()

			l := s.Flush(order)
			seen := make(map[*Task]struct{})
			for tk := l.PopFront(); tk != nil; tk = l.PopFront() {
				_, dup := seen[tk]
				require.False(t, dup, "task %s flushed twice", tk.Name())
				seen[tk] = struct{}{}
			}
			require.Len(t, seen, producers*perProducer)
			assert.True(t, s.Empty())
		})
	}
}

func TestSlistPushDuringFlush(t *testing.T) {
	// Pushes racing a flush must never be lost: they either make the flushed
	// chain or land on the fresh stack for the next flush.
	const total = 2000
	tasks := makeTasks(total)
	var s Slist

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, tk := range tasks {
			s.Push(tk)
		}
	}()

	seen := make(map[*Task]struct{})
	collect := func(l List) {
		for tk := l.PopFront(); tk != nil; tk = l.PopFront() {
			seen[tk] = struct{}{}
		}
	}
	for len(seen) < total {
		collect(s.Flush(FlushFIFO))
	}
	wg.Wait()
	collect(s.Flush(FlushFIFO))

	require.Len(t, seen, total)
}

func TestSlistDiscard(t *testing.T) {
	scope := NewScope("slist")
	var cleaned []string

	a := NewCall(scope, "a", noop)
	b := NewCall(scope, "b", noop)
	dependent := NewCall(scope, "dependent", noop)
	for _, tk := range []*Task{a, b, dependent} {
		tk.SetCleanup(func(tk *Task) { cleaned = append(cleaned, tk.Name()) })
	}
	dependent.DependOn(a)

	var s Slist
	s.Push(a)
	s.Push(b)
	s.Discard()

	assert.True(t, s.Empty())
	assert.ElementsMatch(t, []string{"a", "b", "dependent"}, cleaned)
}
