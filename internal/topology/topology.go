package topology

import (
	"errors"
	"fmt"
	"runtime"
)

// MaxGroups bounds a topology to the width of the executor's worker bitmasks.
const MaxGroups = 64

// Modes accepted by Detect when no explicit group count is configured.
const (
	// ModePhysicalCores creates one group per physical core.
	ModePhysicalCores = "physical_cores"
	// ModeUniqueL2CacheGroups creates one group per distinct L2 cache
	// domain, trading raw width for constructive cache sharing.
	ModeUniqueL2CacheGroups = "unique_l2_cache_groups"
)

// ErrGroupCapacity is returned by PushGroup once a topology already holds
// MaxGroups groups.
var ErrGroupCapacity = errors.New("topology group capacity exhausted")

// Group describes one worker placement slot.
type Group struct {
	// Index is the dense group ordinal, matching the worker index that will
	// service it.
	Index int
	// Name labels the worker in logs.
	Name string
	// Processor is the logical cpu the worker prefers to run on, or -1 when
	// the group carries no affinity.
	Processor int
	// CacheGroup identifies the L2 cache domain of the processor; groups
	// sharing a value benefit from exchanging work with each other. -1 when
	// unknown.
	CacheGroup int
}

// NewGroup returns an unpinned group with the default name for index.
func NewGroup(index int) Group {
	return Group{
		Index:      index,
		Name:       fmt.Sprintf("worker-%d", index),
		Processor:  -1,
		CacheGroup: -1,
	}
}

// Topology is an ordered collection of worker placement groups.
type Topology struct {
	groups []Group
}

// New returns an empty topology.
func New() *Topology { return &Topology{} }

// GroupCount returns the number of groups pushed so far.
func (t *Topology) GroupCount() int { return len(t.groups) }

// Capacity returns the maximum group count a topology can hold.
func (t *Topology) Capacity() int { return MaxGroups }

// Group returns the group at index i, or nil when i is out of range.
func (t *Topology) Group(i int) *Group {
	if i < 0 || i >= len(t.groups) {
		return nil
	}
	return &t.groups[i]
}

// Groups returns the backing group slice in index order. Callers must treat
// it as read-only.
func (t *Topology) Groups() []Group { return t.groups }

// PushGroup appends a group, failing once the topology is at capacity.
func (t *Topology) PushGroup(g Group) error {
	if len(t.groups) >= MaxGroups {
		return fmt.Errorf("pushing group %q: %w", g.Name, ErrGroupCapacity)
	}
	t.groups = append(t.groups, g)
	return nil
}

// FromGroupCount builds a topology of count identical unpinned groups. Counts
// beyond MaxGroups are capped; counts below one are raised to one.
func FromGroupCount(count int) *Topology {
	if count < 1 {
		count = 1
	}
	if count > MaxGroups {
		count = MaxGroups
	}
	t := New()
	for i := 0; i < count; i++ {
		t.groups = append(t.groups, NewGroup(i))
	}
	return t
}

// FromPhysicalCores builds a topology with one group per physical core, up to
// maxGroups. Each group is pinned to the lowest-numbered logical cpu of its
// core. Without probe data it falls back to a cpu-count guess with no
// affinities.
func FromPhysicalCores(maxGroups int) *Topology {
	procs := probeProcessors()
	if len(procs) == 0 {
		return fallbackTopology(maxGroups)
	}
	seen := make(map[int]bool, len(procs))
	var picks []processor
	for _, p := range procs {
		if seen[p.core] {
			continue
		}
		seen[p.core] = true
		picks = append(picks, p)
	}
	return fromProcessors(picks, maxGroups)
}

// FromUniqueL2CacheGroups builds a topology with one group per distinct L2
// cache domain, up to maxGroups, pinning each group to the lowest-numbered
// cpu of its domain. Without probe data it falls back like FromPhysicalCores.
func FromUniqueL2CacheGroups(maxGroups int) *Topology {
	procs := probeProcessors()
	if len(procs) == 0 {
		return fallbackTopology(maxGroups)
	}
	seen := make(map[int]bool, len(procs))
	var picks []processor
	for _, p := range procs {
		if seen[p.cache] {
			continue
		}
		seen[p.cache] = true
		picks = append(picks, p)
	}
	return fromProcessors(picks, maxGroups)
}

// Detect resolves the executor topology from configuration: an explicit
// groupCount wins, otherwise mode selects a probe bounded by maxGroups.
func Detect(groupCount int, mode string, maxGroups int) (*Topology, error) {
	if groupCount > 0 {
		return FromGroupCount(groupCount), nil
	}
	switch mode {
	case ModePhysicalCores:
		return FromPhysicalCores(maxGroups), nil
	case ModeUniqueL2CacheGroups:
		return FromUniqueL2CacheGroups(maxGroups), nil
	default:
		return nil, fmt.Errorf("unknown topology mode %q (want %q or %q)",
			mode, ModePhysicalCores, ModeUniqueL2CacheGroups)
	}
}

// fromProcessors converts picked processors into pinned groups in cpu order.
func fromProcessors(procs []processor, maxGroups int) *Topology {
	if maxGroups > MaxGroups {
		maxGroups = MaxGroups
	}
	if maxGroups < 1 {
		maxGroups = 1
	}
	if len(procs) > maxGroups {
		procs = procs[:maxGroups]
	}
	t := New()
	for i, p := range procs {
		g := NewGroup(i)
		g.Processor = p.id
		g.CacheGroup = p.cache
		t.groups = append(t.groups, g)
	}
	return t
}

// fallbackTopology sizes the pool from the scheduler's cpu count when sysfs
// probing is unavailable, assuming two-way SMT.
func fallbackTopology(maxGroups int) *Topology {
	cores := runtime.NumCPU() / 2
	if cores < 1 {
		cores = 1
	}
	if maxGroups >= 1 && cores > maxGroups {
		cores = maxGroups
	}
	return FromGroupCount(cores)
}
