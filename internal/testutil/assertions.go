package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertGridFinished checks the log output within a HarnessResult to confirm
// that a grid completed with the expected number of executed tasks. The
// count includes the grid's closing fence.
func AssertGridFinished(t *testing.T, result *HarnessResult, grid string, executed int) {
	t.Helper()

	expectedLogSubstring := fmt.Sprintf(`msg="Grid finished." grid=%s executed=%d`, grid, executed)

	require.True(t,
		strings.Contains(result.LogOutput, expectedLogSubstring),
		"expected completion log for grid %q with executed=%d was not found in logs", grid, executed,
	)
}
