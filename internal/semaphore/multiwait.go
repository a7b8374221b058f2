package semaphore

import "context"

// WaitMode selects how many conditions a MultiWait needs.
type WaitMode int

const (
	// Any unblocks as soon as one condition is satisfied.
	Any WaitMode = iota
	// All unblocks only when every condition is satisfied.
	All
)

// Wait is one condition of a MultiWait: sem reaching value.
type Wait struct {
	Sem   *Semaphore
	Value uint64
}

// MultiWait blocks until enough of the conditions hold for mode, any
// semaphore fails, or ctx expires. An empty condition set is trivially
// satisfied. Like Semaphore.Wait, conditions that already hold win over an
// already-expired context.
func MultiWait(ctx context.Context, mode WaitMode, waits []Wait) error {
	if len(waits) == 0 {
		return nil
	}
	need := len(waits)
	if mode == Any {
		need = 1
	}

	results := make(chan error, len(waits))
	type registration struct {
		sem *Semaphore
		tp  *timepoint
	}
	var regs []registration
	for _, w := range waits {
		if tp := w.Sem.whenReached(w.Value, func(err error) { results <- err }); tp != nil {
			regs = append(regs, registration{sem: w.Sem, tp: tp})
		}
	}
	defer func() {
		for _, r := range regs {
			r.sem.cancelTimepoint(r.tp)
		}
	}()

	for got := 0; got < need; {
		select {
		case err := <-results:
			if err != nil {
				return err
			}
			got++
			continue
		default:
		}
		select {
		case err := <-results:
			if err != nil {
				return err
			}
			got++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
