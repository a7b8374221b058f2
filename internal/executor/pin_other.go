//go:build !linux

package executor

import "log/slog"

// pinThread is a no-op off Linux; topology affinities stay advisory.
func pinThread(processor int, log *slog.Logger) {}
