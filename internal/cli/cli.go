package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/taskgridgo/internal/app"
	"github.com/vk/taskgridgo/internal/topology"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("taskgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
TaskGridGo - A declarative task graph runner for CPU-side work.

Usage:
  taskgridgo [options] [GRID_PATH]

Arguments:
  GRID_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	gridFlag := flagSet.String("grid", "", "Path to the grid file or directory.")
	gFlag := flagSet.String("g", "", "Path to the grid file or directory (shorthand).")
	statsPortFlag := flagSet.Int("stats-port", 0, "Port for the HTTP stats server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 0, "Number of executor workers. 0 sizes the pool from the topology mode.")
	topologyModeFlag := flagSet.String("topology-mode", topology.ModePhysicalCores,
		"How to size and place the worker pool. Options: 'physical_cores' or 'unique_l2_cache_groups'.")
	topologyMaxGroupsFlag := flagSet.Int("topology-max-groups", 8, "Upper bound on topology-derived worker groups.")
	deferStartupFlag := flagSet.Bool("defer-worker-startup", false, "Start worker goroutines on first use instead of upfront.")
	dedicatedWaitFlag := flagSet.Bool("dedicated-wait-thread", false, "Deliver semaphore wakeups from a dedicated goroutine.")
	workerMemoryFlag := flagSet.Int("worker-local-memory", 0, "Per-worker scratch bytes for dispatch tiles. 0 uses the built-in default.")
	flushOrderFlag := flagSet.String("flush-order", "fifo", "Mailbox flush order. Options: 'fifo' or 'lifo'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *gridFlag != "" {
		path = *gridFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Grid path determined.", "path", path)

	if path == "" {
		slog.Debug("No grid path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	topologyMode := strings.ToLower(*topologyModeFlag)
	switch topologyMode {
	case topology.ModePhysicalCores, topology.ModeUniqueL2CacheGroups:
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf(
			"invalid topology-mode: must be '%s' or '%s'", topology.ModePhysicalCores, topology.ModeUniqueL2CacheGroups)}
	}

	flushOrder := strings.ToLower(*flushOrderFlag)
	if flushOrder != "fifo" && flushOrder != "lifo" {
		return nil, false, &ExitError{Code: 2, Message: "invalid flush-order: must be 'fifo' or 'lifo'"}
	}

	if *workersFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid workers: must not be negative"}
	}
	if *topologyMaxGroupsFlag < 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid topology-max-groups: must be at least 1"}
	}
	if *workerMemoryFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid worker-local-memory: must not be negative"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GridPath:            path,
		StatsPort:           *statsPortFlag,
		LogFormat:           logFormat,
		LogLevel:            logLevel,
		Workers:             *workersFlag,
		TopologyMode:        topologyMode,
		TopologyMaxGroups:   *topologyMaxGroupsFlag,
		DeferWorkerStartup:  *deferStartupFlag,
		DedicatedWaitThread: *dedicatedWaitFlag,
		WorkerLocalMemory:   *workerMemoryFlag,
		FlushOrder:          flushOrder,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
