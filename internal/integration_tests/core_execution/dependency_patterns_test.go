package integration_tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/testutil"
)

// TestCoreExecution_DiamondPattern runs the classic diamond graph and checks
// both orderings: the fan-out waits for the root, the join waits for both arms.
func TestCoreExecution_DiamondPattern(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
call "root" {
  kernel = "sleeper"
  arguments {
    id = "root"
  }
}

call "left" {
  kernel = "sleeper"
  arguments {
    id = "left"
  }
  depends_on = ["root"]
}

call "right" {
  kernel = "sleeper"
  arguments {
    id = "right"
  }
  depends_on = ["root"]
}

call "join" {
  kernel = "sleeper"
  arguments {
    id = "join"
  }
  depends_on = ["left", "right"]
}
`,
	}

	completionChan := make(chan string, 4)
	mockModule := testutil.NewMockSleeperModule(completionChan, 30*time.Millisecond)

	// --- Act ---
	result := testutil.RunGridTest(t, files, mockModule)
	require.NoError(t, result.Err, "test run failed unexpectedly")

	// --- Assert ---
	for i := 0; i < 4; i++ {
		select {
		case <-completionChan:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for the diamond to complete")
		}
	}

	root := mockModule.Record("root")
	left := mockModule.Record("left")
	right := mockModule.Record("right")
	join := mockModule.Record("join")
	require.NotNil(t, root, "root never ran")
	require.NotNil(t, left, "left never ran")
	require.NotNil(t, right, "right never ran")
	require.NotNil(t, join, "join never ran")

	require.True(t, left.Start.After(root.End), "left arm started before the root finished")
	require.True(t, right.Start.After(root.End), "right arm started before the root finished")
	require.True(t, join.Start.After(left.End), "join started before the left arm finished")
	require.True(t, join.Start.After(right.End), "join started before the right arm finished")

	// 4 calls plus the closing fence.
	testutil.AssertGridFinished(t, result, "main", 5)
}
