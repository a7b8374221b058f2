package semaphore

import "github.com/puzpuzpuz/xsync/v3"

// Pool resolves semaphores by name, creating each on first use. Producers on
// different goroutines resolving the same name always share one instance.
type Pool struct {
	sems *xsync.MapOf[string, *Semaphore]
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{sems: xsync.NewMapOf[string, *Semaphore]()}
}

// Get returns the semaphore named name, creating it at zero on first use.
func (p *Pool) Get(name string) *Semaphore {
	return p.Declare(name, 0)
}

// Declare returns the semaphore named name, creating it with the given
// initial value on first use. Declaring an existing name keeps the existing
// timeline and its current value.
func (p *Pool) Declare(name string, initial uint64) *Semaphore {
	sem, _ := p.sems.LoadOrCompute(name, func() *Semaphore {
		return New(name, initial)
	})
	return sem
}

// Range calls fn for each pooled semaphore until fn returns false.
func (p *Pool) Range(fn func(*Semaphore) bool) {
	p.sems.Range(func(_ string, sem *Semaphore) bool {
		return fn(sem)
	})
}

// Size returns the number of distinct semaphores created so far.
func (p *Pool) Size() int { return p.sems.Size() }
