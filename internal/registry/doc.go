// Package registry is the glue between grid files and compiled Go kernels.
//
// A grid names kernels by string ("sleep", "checksum"); the registry maps
// those names to the Go functions and input struct constructors that
// implement them. Registration happens at startup from compiled-in modules,
// and every handler's signature is checked at registration time so a
// mismatch between a kernel's declared input and its function is a startup
// panic rather than a runtime surprise.
package registry
