// Package memory provides in-memory implementations of the tree loader and
// session store ports. Used by embedders that define trees in code, and by
// tests.
package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/lattice/pkg/domain"
)

// Loader implements ports.TreeLoader over a fixed set of nodes.
type Loader struct {
	nodes map[string]*domain.Node
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{nodes: make(map[string]*domain.Node)}
}

// NewFromNodes creates a loader holding the given nodes.
func NewFromNodes(nodes ...*domain.Node) *Loader {
	l := NewLoader()
	for _, n := range nodes {
		l.Add(n)
	}
	return l
}

// Add registers a node. Later additions replace earlier ones at the same
// coordinate.
func (l *Loader) Add(node *domain.Node) *Loader {
	l.nodes[node.Coordinate] = node
	return l
}

// GetNode retrieves a node by coordinate.
func (l *Loader) GetNode(coordinate string) (*domain.Node, error) {
	node, ok := l.nodes[coordinate]
	if !ok {
		return nil, fmt.Errorf("node %q not found", coordinate)
	}
	return node, nil
}

// ListNodes returns all coordinates, sorted.
func (l *Loader) ListNodes() ([]string, error) {
	out := make([]string, 0, len(l.nodes))
	for c := range l.nodes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
