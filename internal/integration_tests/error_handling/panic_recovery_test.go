package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/testutil"
)

// TestErrorHandling_PanickingKernelBecomesFailure runs a kernel that panics
// and verifies the pool survives: the panic is converted into a task failure
// and dependents are discarded like any other failure.
func TestErrorHandling_PanickingKernelBecomesFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
call "boom" {
  kernel = "panicky"
}

call "victim" {
  kernel = "sleeper"
  arguments {
    id = "victim"
  }
  depends_on = ["boom"]
}
`,
	}

	panickyModule := &testutil.SimpleModule{
		KernelName: "panicky",
		Kernel: &registry.RegisteredKernel{
			Fn: func(context.Context, *struct{}) error {
				panic("kernel went sideways")
			},
		},
	}
	mockModule := testutil.NewMockSleeperModule(nil, 10*time.Millisecond)

	// --- Act ---
	result := testutil.RunGridTest(t, files, panickyModule, mockModule)

	// --- Assert ---
	require.Error(t, result.Err, "the panic must surface as a run error")
	assert.ErrorContains(t, result.Err, `task "boom"`)
	assert.ErrorContains(t, result.Err, "panic: kernel went sideways")
	assert.Nil(t, mockModule.Record("victim"), "dependent of the panicking task ran")
}
