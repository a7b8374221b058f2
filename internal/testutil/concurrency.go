package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/taskgridgo/internal/registry"
)

// MockSleeperModule is a shared, self-contained module for concurrency
// tests. It registers a "sleeper" kernel and records when each invocation
// ran, keyed by the id argument.
type MockSleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string]*ExecutionRecord
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing. Each kernel
// invocation sleeps for the given duration and, when completionChan is
// non-nil, reports its id there after waking.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		executionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Record returns the execution record for one invocation id, or nil if that
// invocation never ran.
func (m *MockSleeperModule) Record(id string) *ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executionTimes[id]
}

// Register registers the "sleeper" kernel's Go handler.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	type sleeperInput struct {
		ID string `tggo:"id"`
	}

	r.RegisterKernel("sleeper", &registry.RegisteredKernel{
		NewInput: func() any { return new(sleeperInput) },
		Fn: func(_ context.Context, input *sleeperInput) error {
			startTime := time.Now()
			time.Sleep(m.sleepDuration)
			endTime := time.Now()

			m.mu.Lock()
			m.executionTimes[input.ID] = &ExecutionRecord{Start: startTime, End: endTime}
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- input.ID
			}
			return nil
		},
	})
}
