package builder

import (
	"context"
	"fmt"

	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/semaphore"
	"github.com/vk/taskgridgo/internal/task"
)

// Options holds the collaborators and limits a build runs against.
type Options struct {
	Registry *registry.Registry
	Decoder  config.ArgDecoder
	// Semaphores is the pool grid semaphores resolve through. Grids sharing
	// a pool share timelines by name, which is how one grid's fence gates
	// another grid's await.
	Semaphores *semaphore.Pool
	// MemoryBudget is the executor's per-worker scratch size. Dispatches
	// reserving more than this are construction errors.
	MemoryBudget int
}

// Result is a built grid, staged and ready for an executor.
type Result struct {
	Scope      *task.Scope
	Submission *task.Submission
	// Semaphores are the timelines this grid declared, by name.
	Semaphores map[string]*semaphore.Semaphore
}

// Build constructs a validated task graph from a grid model.
func Build(ctx context.Context, model *config.Model, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("grid", model.Name)
	logger.Debug("Build: Starting graph construction.", "nodes", model.NodeCount())

	if err := validateReferences(model); err != nil {
		return nil, err
	}
	if err := detectCycles(model); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Validation passed.")

	b := &build{
		model:   model,
		opts:    opts,
		scope:   task.NewScope(model.Name),
		tasks:   make(map[string]*task.Task, model.NodeCount()),
		sems:    make(map[string]*semaphore.Semaphore, len(model.Semaphores)),
		hasDeps: make(map[string]bool),
	}

	for _, s := range model.Semaphores {
		b.sems[s.Name] = opts.Semaphores.Declare(s.Name, s.Initial)
	}

	if err := b.createTasks(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Build: Task creation complete.", "tasks", len(b.order))

	if err := b.linkTasks(); err != nil {
		return nil, err
	}
	b.fenceSinks()

	sub := &task.Submission{}
	for _, t := range b.order {
		sub.Enqueue(t)
	}
	logger.Debug("Build: Graph staged.", "ready", sub.Ready.Len(), "waiting", sub.Waiting.Len())

	return &Result{Scope: b.scope, Submission: sub, Semaphores: b.sems}, nil
}

// build carries the intermediate state of one Build invocation.
type build struct {
	model *config.Model
	opts  Options
	scope *task.Scope

	tasks map[string]*task.Task
	order []*task.Task
	sems  map[string]*semaphore.Semaphore
	// hasDeps marks nodes something depends on; the rest are sinks.
	hasDeps map[string]bool
}

func (b *build) add(name string, t *task.Task) {
	b.tasks[name] = t
	b.order = append(b.order, t)
}

// validateReferences checks that depends_on edges and semaphore references
// all point at declared blocks.
func validateReferences(model *config.Model) error {
	names := make(map[string]bool, model.NodeCount())
	sems := make(map[string]bool, len(model.Semaphores))
	for _, s := range model.Semaphores {
		sems[s.Name] = true
	}
	forEachNode(model, func(name string, _ []string) {
		names[name] = true
	})

	var err error
	forEachNode(model, func(name string, deps []string) {
		if err != nil {
			return
		}
		for _, dep := range deps {
			if dep == name {
				err = fmt.Errorf("node %q depends on itself", name)
				return
			}
			if !names[dep] {
				err = fmt.Errorf("node %q depends on undeclared node %q", name, dep)
				return
			}
		}
	})
	if err != nil {
		return err
	}

	for _, f := range semaphoreRefs(model) {
		if !sems[f.sem] {
			return fmt.Errorf("%s %q references undeclared semaphore %q", f.kind, f.name, f.sem)
		}
	}
	return nil
}

type semRef struct{ kind, name, sem string }

func semaphoreRefs(model *config.Model) []semRef {
	refs := make([]semRef, 0, len(model.Fences)+len(model.Awaits))
	for _, f := range model.Fences {
		refs = append(refs, semRef{"fence", f.Name, f.Semaphore})
	}
	for _, a := range model.Awaits {
		refs = append(refs, semRef{"await", a.Name, a.Semaphore})
	}
	return refs
}

// forEachNode visits every task-producing block with its name and
// depends_on edges, in model order.
func forEachNode(model *config.Model, fn func(name string, deps []string)) {
	for _, c := range model.Calls {
		fn(c.Name, c.DependsOn)
	}
	for _, b := range model.Barriers {
		fn(b.Name, b.DependsOn)
	}
	for _, d := range model.Dispatches {
		fn(d.Name, d.DependsOn)
	}
	for _, f := range model.Fences {
		fn(f.Name, f.DependsOn)
	}
	for _, a := range model.Awaits {
		fn(a.Name, nil)
	}
}
