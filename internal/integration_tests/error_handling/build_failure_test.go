package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/testutil"
)

// TestErrorHandling_InvalidGridsAreRejected covers failures that must be
// caught before any task runs: parse errors, decode errors and dependency
// graph validation.
func TestErrorHandling_InvalidGridsAreRejected(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		grid    string
		wantErr string
	}{
		{
			name:    "malformed syntax",
			grid:    `call "a" {`,
			wantErr: "failed to parse",
		},
		{
			name: "unknown attribute",
			grid: `
call "a" {
  kernel = "noop"
  bogus  = true
}
`,
			wantErr: "failed to decode",
		},
		{
			name: "unknown kernel",
			grid: `
call "a" {
  kernel = "nope"
}
`,
			wantErr: `unknown kernel "nope"`,
		},
		{
			name: "undeclared dependency",
			grid: `
call "a" {
  kernel     = "noop"
  depends_on = ["ghost"]
}
`,
			wantErr: `node "a" depends on undeclared node "ghost"`,
		},
		{
			name: "self dependency",
			grid: `
call "a" {
  kernel     = "noop"
  depends_on = ["a"]
}
`,
			wantErr: `node "a" depends on itself`,
		},
		{
			name: "dependency cycle",
			grid: `
call "a" {
  kernel     = "noop"
  depends_on = ["b"]
}

call "b" {
  kernel     = "noop"
  depends_on = ["a"]
}
`,
			wantErr: "cycle detected involving node",
		},
		{
			name: "arguments to an argumentless kernel",
			grid: `
call "a" {
  kernel = "noop"
  arguments {
    anything = 1
  }
}
`,
			wantErr: "kernel takes no arguments",
		},
		{
			name: "undeclared semaphore",
			grid: `
call "a" {
  kernel = "noop"
}

fence "done" {
  semaphore  = "ghost"
  value      = 1
  depends_on = ["a"]
}
`,
			wantErr: `references undeclared semaphore "ghost"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			files := map[string]string{"main.hcl": tc.grid}

			// --- Act ---
			result := testutil.RunGridTest(t, files, &testutil.NoOpModule{})

			// --- Assert ---
			require.Error(t, result.Err, "the invalid grid was accepted")
			assert.ErrorContains(t, result.Err, tc.wantErr)
			assert.NotContains(t, result.LogOutput, `msg="Grid finished."`,
				"a rejected grid must not run")
		})
	}
}
