// Package config defines the format-agnostic grid model along with the
// Loader and ArgDecoder interfaces that format-specific implementations
// (such as hclgrid) satisfy.
//
// The config.Model is the single source of truth for the builder: it names
// every semaphore, call, barrier, dispatch, fence and await block of a grid
// plus the engine settings the grid pins for itself.
package config
