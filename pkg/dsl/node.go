package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring one node.
type NodeBuilder struct {
	node *domain.Node
	err  error
}

// Prompt sets the text shown above the option list.
func (n *NodeBuilder) Prompt(prompt string) *NodeBuilder {
	n.node.Prompt = prompt
	return n
}

// Describe sets the node description.
func (n *NodeBuilder) Describe(description string) *NodeBuilder {
	n.node.Description = description
	return n
}

// Option appends a menu entry mapping key to a target coordinate.
func (n *NodeBuilder) Option(key, target, label string) *NodeBuilder {
	n.node.Options = append(n.node.Options, domain.Option{
		Key:    key,
		Target: target,
		Label:  label,
	})
	return n
}

// Args sets the argument template for a callable node. Values of the form
// "$variable" or "{$variable}" are substituted from session variables at
// invocation time; other values act as literal defaults.
func (n *NodeBuilder) Args(args map[string]any) *NodeBuilder {
	raw, err := json.Marshal(args)
	if err != nil {
		n.err = fmt.Errorf("node %q: invalid args: %w", n.node.Coordinate, err)
		return n
	}
	v, err := domain.ParseValue(string(raw))
	if err != nil {
		n.err = fmt.Errorf("node %q: invalid args: %w", n.node.Coordinate, err)
		return n
	}
	n.node.ArgsTemplate = &v
	return n
}

// Node returns the underlying domain node. Exposed for advanced usage;
// Build on the tree builder is the normal path.
func (n *NodeBuilder) Node() *domain.Node {
	return n.node
}
