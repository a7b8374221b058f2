// Package testutil provides shared harnesses and mock kernel modules for
// integration tests that drive the application end to end.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/app"
	"github.com/vk/taskgridgo/internal/registry"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunGridTest provides a standardized harness for running integration tests
// using a default background context.
func RunGridTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunGridTestWithContext(context.Background(), t, files, modules...)
}

// RunGridTestWithContext writes the given grid files into a temporary
// directory, runs the application against it with the provided kernel
// modules (core modules when none are given) and captures the outcome.
func RunGridTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	appConfig := &app.Config{
		GridPath:          tmpDir,
		LogLevel:          "debug",
		LogFormat:         "text",
		Workers:           4,
		TopologyMode:      "physical_cores",
		TopologyMaxGroups: 8,
		FlushOrder:        "fifo",
	}

	testApp, logBuffer := app.SetupAppTest(t, appConfig, modules...)
	runErr := testApp.Run(ctx)

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
