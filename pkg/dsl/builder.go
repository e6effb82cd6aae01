package dsl

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
)

// Builder accumulates node definitions for a coordinate tree.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Menu defines a menu node at the coordinate. Defining the same coordinate
// twice returns the existing builder.
func (b *Builder) Menu(coordinate, name string) *NodeBuilder {
	nb := b.add(coordinate)
	nb.node.Kind = domain.NodeKindMenu
	nb.node.Name = name
	return nb
}

// Callable defines a callable node bound to the registered callable key.
func (b *Builder) Callable(coordinate, name, callable string) *NodeBuilder {
	nb := b.add(coordinate)
	nb.node.Kind = domain.NodeKindCallable
	nb.node.Name = name
	nb.node.Callable = callable
	return nb
}

func (b *Builder) add(coordinate string) *NodeBuilder {
	if nb, ok := b.nodes[coordinate]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: &domain.Node{Coordinate: coordinate},
	}
	b.nodes[coordinate] = nb
	b.order = append(b.order, coordinate)
	return nb
}

// Build validates the accumulated definitions and compiles them into a
// memory loader. Option targets must reference defined coordinates and
// callable nodes must carry a callable key.
func (b *Builder) Build() (*memory.Loader, error) {
	loader := memory.NewLoader()
	for _, coordinate := range b.order {
		nb := b.nodes[coordinate]
		if nb.err != nil {
			return nil, nb.err
		}
		if nb.node.Kind == domain.NodeKindCallable && nb.node.Callable == "" {
			return nil, fmt.Errorf("node %q: callable nodes require a callable key", coordinate)
		}
		for _, opt := range nb.node.Options {
			if _, ok := b.nodes[opt.Target]; !ok {
				return nil, fmt.Errorf("node %q: option %q targets undefined coordinate %q", coordinate, opt.Key, opt.Target)
			}
		}
		loader.Add(nb.node)
	}
	return loader, nil
}
