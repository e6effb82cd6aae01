// Package validator checks a loaded tree for structural consistency.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Report collects the findings of one validation run.
type Report struct {
	// Errors are violations that make parts of the tree unusable.
	Errors []string
	// Unreachable lists coordinates no option path reaches from the root.
	Unreachable []string
}

// Err folds the errors into a single error, or nil when the tree is valid.
// Unreachable nodes are reported but do not fail validation; jump can still
// address them.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Errors), strings.Join(r.Errors, "\n- "))
}

// ValidateTree loads every node and checks option targets, callable keys and
// the menus-are-interior invariant, then crawls option edges from root to
// find unreachable nodes.
func ValidateTree(loader ports.TreeLoader, root string) (*Report, error) {
	coords, err := loader.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	report := &Report{}
	defined := make(map[string]*domain.Node, len(coords))

	for _, coordinate := range coords {
		node, err := loader.GetNode(coordinate)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("load error at %q: %v", coordinate, err))
			continue
		}
		defined[coordinate] = node
	}

	for _, coordinate := range coords {
		node, ok := defined[coordinate]
		if !ok {
			continue
		}

		switch node.Kind {
		case domain.NodeKindMenu:
		case domain.NodeKindCallable:
			if node.Callable == "" {
				report.Errors = append(report.Errors, fmt.Sprintf("callable node %q has no callable key", coordinate))
			}
			if len(node.Options) > 0 {
				report.Errors = append(report.Errors, fmt.Sprintf("callable node %q declares menu options", coordinate))
			}
		default:
			report.Errors = append(report.Errors, fmt.Sprintf("node %q has unknown kind %q", coordinate, node.Kind))
		}

		seen := make(map[string]bool, len(node.Options))
		for _, opt := range node.Options {
			if seen[opt.Key] {
				report.Errors = append(report.Errors, fmt.Sprintf("node %q repeats option key %q", coordinate, opt.Key))
			}
			seen[opt.Key] = true
			if _, ok := defined[opt.Target]; !ok {
				report.Errors = append(report.Errors, fmt.Sprintf("node %q option %q targets missing coordinate %q", coordinate, opt.Key, opt.Target))
			}
		}

		// Interior coordinates must be menus: a callable with children
		// cannot be navigated through.
		if parent, ok := parentOf(coordinate); ok {
			if p, ok := defined[parent]; ok && p.Kind == domain.NodeKindCallable {
				report.Errors = append(report.Errors, fmt.Sprintf("node %q is a child of callable %q", coordinate, parent))
			}
		}
	}

	if _, ok := defined[root]; !ok {
		report.Errors = append(report.Errors, fmt.Sprintf("root node %q not found", root))
		return report, nil
	}

	visited := crawl(defined, root)
	for _, coordinate := range coords {
		if !visited[coordinate] {
			report.Unreachable = append(report.Unreachable, coordinate)
		}
	}

	return report, nil
}

func crawl(defined map[string]*domain.Node, root string) map[string]bool {
	visited := make(map[string]bool)
	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		node, ok := defined[current]
		if !ok {
			continue
		}
		for _, opt := range node.Options {
			if !visited[opt.Target] {
				queue = append(queue, opt.Target)
			}
		}
	}
	return visited
}

func parentOf(coordinate string) (string, bool) {
	idx := strings.LastIndex(coordinate, ".")
	if idx < 0 {
		return "", false
	}
	return coordinate[:idx], true
}
