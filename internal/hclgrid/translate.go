package hclgrid

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/schema"
)

// translate converts the decoded HCL schema into the format-agnostic model,
// rejecting shapes the engine cannot run: duplicate node names, malformed
// dispatch grids, negative memory reservations and unknown flush orders.
func translate(grid *schema.Grid, name string) (*config.Model, error) {
	model := &config.Model{Name: name}

	if grid.Settings != nil {
		s, err := translateSettings(grid.Settings)
		if err != nil {
			return nil, err
		}
		model.Settings = s
	}

	seen := map[string]string{}
	claim := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("%s block with an empty name", kind)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("duplicate node name %q (%s and %s)", name, prev, kind)
		}
		seen[name] = kind
		return nil
	}

	semaphores := map[string]bool{}
	for _, s := range grid.Semaphores {
		if s.Name == "" {
			return nil, fmt.Errorf("semaphore block with an empty name")
		}
		if semaphores[s.Name] {
			return nil, fmt.Errorf("duplicate semaphore name %q", s.Name)
		}
		semaphores[s.Name] = true
		model.Semaphores = append(model.Semaphores, &config.Semaphore{Name: s.Name, Initial: s.Initial})
	}

	for _, c := range grid.Calls {
		if err := claim("call", c.Name); err != nil {
			return nil, err
		}
		if c.Kernel == "" {
			return nil, fmt.Errorf("call %q: kernel must not be empty", c.Name)
		}
		model.Calls = append(model.Calls, &config.Call{
			Name:      c.Name,
			Kernel:    c.Kernel,
			Arguments: extractArguments(c.Arguments),
			DependsOn: c.DependsOn,
		})
	}

	for _, b := range grid.Barriers {
		if err := claim("barrier", b.Name); err != nil {
			return nil, err
		}
		model.Barriers = append(model.Barriers, &config.Barrier{Name: b.Name, DependsOn: b.DependsOn})
	}

	for _, d := range grid.Dispatches {
		if err := claim("dispatch", d.Name); err != nil {
			return nil, err
		}
		if d.Kernel == "" {
			return nil, fmt.Errorf("dispatch %q: kernel must not be empty", d.Name)
		}
		dims, err := gridDims(d.Grid)
		if err != nil {
			return nil, fmt.Errorf("dispatch %q: %w", d.Name, err)
		}
		local := 0
		if d.LocalMemory != nil {
			if *d.LocalMemory < 0 {
				return nil, fmt.Errorf("dispatch %q: local_memory must not be negative, got %d", d.Name, *d.LocalMemory)
			}
			local = *d.LocalMemory
		}
		model.Dispatches = append(model.Dispatches, &config.Dispatch{
			Name:        d.Name,
			Kernel:      d.Kernel,
			Grid:        dims,
			LocalMemory: local,
			Arguments:   extractArguments(d.Arguments),
			DependsOn:   d.DependsOn,
		})
	}

	for _, f := range grid.Fences {
		if err := claim("fence", f.Name); err != nil {
			return nil, err
		}
		if f.Semaphore == "" {
			return nil, fmt.Errorf("fence %q: semaphore must not be empty", f.Name)
		}
		model.Fences = append(model.Fences, &config.Fence{
			Name:      f.Name,
			Semaphore: f.Semaphore,
			Value:     f.Value,
			DependsOn: f.DependsOn,
		})
	}

	for _, a := range grid.Awaits {
		if err := claim("await", a.Name); err != nil {
			return nil, err
		}
		if a.Semaphore == "" {
			return nil, fmt.Errorf("await %q: semaphore must not be empty", a.Name)
		}
		model.Awaits = append(model.Awaits, &config.Await{
			Name:      a.Name,
			Semaphore: a.Semaphore,
			Value:     a.Value,
		})
	}

	return model, nil
}

func translateSettings(s *schema.Settings) (*config.Settings, error) {
	if s.Workers != nil && *s.Workers < 0 {
		return nil, fmt.Errorf("settings: workers must not be negative, got %d", *s.Workers)
	}
	if s.TopologyMaxGroups != nil && *s.TopologyMaxGroups < 1 {
		return nil, fmt.Errorf("settings: topology_max_groups must be at least 1, got %d", *s.TopologyMaxGroups)
	}
	if s.WorkerLocalMemory != nil && *s.WorkerLocalMemory < 0 {
		return nil, fmt.Errorf("settings: worker_local_memory must not be negative, got %d", *s.WorkerLocalMemory)
	}
	if s.FlushOrder != nil {
		switch *s.FlushOrder {
		case "fifo", "lifo":
		default:
			return nil, fmt.Errorf("settings: flush_order must be %q or %q, got %q", "fifo", "lifo", *s.FlushOrder)
		}
	}
	return &config.Settings{
		Workers:             s.Workers,
		TopologyMode:        s.TopologyMode,
		TopologyMaxGroups:   s.TopologyMaxGroups,
		DeferWorkerStartup:  s.DeferWorkerStartup,
		DedicatedWaitThread: s.DedicatedWaitThread,
		WorkerLocalMemory:   s.WorkerLocalMemory,
		FlushOrder:          s.FlushOrder,
	}, nil
}

// gridDims pads a 1-3 element workgroup count out to three dimensions.
func gridDims(raw []uint32) ([3]uint32, error) {
	if len(raw) == 0 || len(raw) > 3 {
		return [3]uint32{}, fmt.Errorf("grid must have 1 to 3 dimensions, got %d", len(raw))
	}
	dims := [3]uint32{1, 1, 1}
	copy(dims[:], raw)
	return dims, nil
}

// extractArguments flattens an arguments block into an expression map, left
// unevaluated until the kernel's input struct is known.
func extractArguments(block *schema.Arguments) map[string]hcl.Expression {
	if block == nil || block.Body == nil {
		return nil
	}
	attrs, _ := block.Body.JustAttributes()
	if len(attrs) == 0 {
		return nil
	}
	exprs := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs
}
