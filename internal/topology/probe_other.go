//go:build !linux

package topology

// probeProcessors has no portable implementation off Linux; constructors fall
// back to a cpu-count guess.
func probeProcessors() []processor { return nil }
