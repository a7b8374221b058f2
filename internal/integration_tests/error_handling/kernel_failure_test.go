package integration_tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/testutil"
	"github.com/vk/taskgridgo/kernels/fail"
)

// TestErrorHandling_FailureDiscardsDependents runs a chain where the second
// link fails and verifies the failure surfaces, the upstream work counts as
// executed and everything downstream is discarded without running.
func TestErrorHandling_FailureDiscardsDependents(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
call "gate" {
  kernel = "sleeper"
  arguments {
    id = "gate"
  }
}

call "boom" {
  kernel = "fail"
  arguments {
    message = "deliberate test failure"
  }
  depends_on = ["gate"]
}

call "victim_1" {
  kernel = "sleeper"
  arguments {
    id = "victim_1"
  }
  depends_on = ["boom"]
}

call "victim_2" {
  kernel = "sleeper"
  arguments {
    id = "victim_2"
  }
  depends_on = ["victim_1"]
}
`,
	}

	mockModule := testutil.NewMockSleeperModule(nil, 10*time.Millisecond)

	// --- Act ---
	result := testutil.RunGridTest(t, files, mockModule, &fail.Module{})

	// --- Assert ---
	require.Error(t, result.Err, "the failing kernel must surface an error")
	assert.ErrorContains(t, result.Err, `task "boom"`)
	assert.ErrorContains(t, result.Err, "deliberate test failure")

	assert.NotNil(t, mockModule.Record("gate"), "upstream work should have executed")
	assert.Nil(t, mockModule.Record("victim_1"), "direct dependent of the failure ran")
	assert.Nil(t, mockModule.Record("victim_2"), "transitive dependent of the failure ran")

	assert.Contains(t, result.LogOutput, `msg="Task failed."`)
	// gate executed; boom failed; both victims and the closing fence were
	// discarded.
	assert.Contains(t, result.LogOutput, "executed=1 slices=0 failed=1 discarded=3")
}
