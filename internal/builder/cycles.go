package builder

import (
	"fmt"

	"github.com/vk/taskgridgo/internal/config"
)

// detectCycles runs a depth-first search over the name-level dependency
// graph with the classic three sets: permanently cleared nodes, nodes on the
// current recursion stack, and everything else. Hitting a node already on
// the stack means the grid can never make progress.
func detectCycles(model *config.Model) error {
	edges := make(map[string][]string)
	forEachNode(model, func(name string, deps []string) {
		edges[name] = deps
	})

	permanent := make(map[string]bool, len(edges))
	temporary := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if permanent[name] {
			return nil
		}
		if temporary[name] {
			return fmt.Errorf("cycle detected involving node '%s'", name)
		}
		temporary[name] = true
		for _, dep := range edges[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(temporary, name)
		permanent[name] = true
		return nil
	}

	for name := range edges {
		if !permanent[name] {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}
