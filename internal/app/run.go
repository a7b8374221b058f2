package app

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/vk/taskgridgo/internal/builder"
	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/executor"
	"github.com/vk/taskgridgo/internal/semaphore"
	"github.com/vk/taskgridgo/internal/topology"
)

// Run executes the main application logic: load grids, build their task
// graphs, and run them all on one shared executor pool.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	models, err := a.loader.Load(ctx, a.config.GridPath)
	if err != nil {
		return fmt.Errorf("failed to load grids: %w", err)
	}
	if len(models) == 0 {
		a.logger.Warn("No grids loaded, execution not required.")
		return nil
	}
	a.logger.Debug("Grids loaded and translated.", "count", len(models))

	eng := a.resolveEngine(models)
	topo, err := topology.Detect(eng.workers, eng.topologyMode, eng.topologyMaxGroups)
	if err != nil {
		return err
	}

	exec, err := executor.New(ctx, executor.Config{
		Topology:            topo,
		FlushOrder:          taskFlushOrder(eng.flushOrder),
		DeferWorkerStartup:  eng.deferWorkerStartup,
		DedicatedWaitPoller: eng.dedicatedWaitThread,
		WorkerLocalMemory:   eng.workerLocalMemory,
	})
	if err != nil {
		return err
	}
	defer exec.Shutdown()

	var srv *http.Server
	if a.config.StatsPort > 0 {
		srv = a.startStatsServer(a.config.StatsPort, exec)
		defer a.closeStatsServer(srv)
	}

	// One semaphore pool for the whole run, so grids that declare the same
	// timeline name synchronize with each other.
	pool := semaphore.NewPool()

	a.logger.Info("🚀 Starting concurrent execution...", "grids", len(models), "workers", exec.Workers())
	g, gctx := errgroup.WithContext(ctx)
	for _, model := range models {
		g.Go(func() error {
			return a.runGrid(gctx, model, exec, pool)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	stats := exec.Stats()
	a.logger.Debug("Executor pool statistics.",
		"submissions", stats.Submissions,
		"flushes", stats.Flushes,
		"steals", stats.Steals,
		"parks", stats.Parks,
	)
	a.logger.Info("🏁 Execution finished.")
	return nil
}

// runGrid builds one grid's task graph, submits it and waits for the scope
// to drain. The first failure inside the grid comes back as the error.
func (a *App) runGrid(ctx context.Context, model *config.Model, exec *executor.Executor, pool *semaphore.Pool) error {
	logger := a.logger.With("grid", model.Name)

	if model.NodeCount() == 0 {
		logger.Warn("Grid has no tasks, skipping.")
		return nil
	}

	res, err := builder.Build(ctx, model, builder.Options{
		Registry:     a.registry,
		Decoder:      a.decoder,
		Semaphores:   pool,
		MemoryBudget: exec.WorkerLocalMemory(),
	})
	if err != nil {
		return fmt.Errorf("grid %q: %w", model.Name, err)
	}

	exec.Submit(res.Submission)
	logger.Debug("Grid submitted.")

	if err := res.Scope.WaitIdle(ctx); err != nil {
		return fmt.Errorf("grid %q: %w", model.Name, err)
	}

	stats := res.Scope.ConsumeStatistics()
	logger.Info("Grid finished.",
		"executed", stats.TasksExecuted,
		"slices", stats.SlicesExecuted,
		"failed", stats.TasksFailed,
		"discarded", stats.TasksDiscarded,
	)
	if err := res.Scope.ConsumeStatus(); err != nil {
		return fmt.Errorf("grid %q: %w", model.Name, err)
	}
	return nil
}
