/*
Package builder turns a loaded grid model into a ready-to-submit task graph.

Construction is a multi-phase process:

 1. Validation: every depends_on reference must name a declared block, every
    fence and await must name a declared semaphore, and the name-level
    dependency graph must be acyclic. Cycles are a construction error here,
    not a runtime hang later.

 2. Task creation: each block becomes a task. Calls and dispatches resolve
    their kernels against the registry and bind their argument expressions to
    the kernel's input struct once, at build time, so workers execute plain
    closures.

 3. Linking: depends_on edges become dependency counter increments and
    completion fan-out entries.

 4. Sink fencing: a synthetic fence depending on every sink closes the grid,
    so Scope.WaitIdle tracks the whole graph even when the grid declares no
    fence of its own.

The result carries the scope, the staged submission and the semaphores the
grid declared; the caller hands the submission to an executor and waits on
the scope.
*/
package builder
