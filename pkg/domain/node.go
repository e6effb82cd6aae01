package domain

// NodeKind constants define how a node behaves when addressed.
const (
	// NodeKindMenu presents options and acts as a navigation waypoint.
	NodeKindMenu = "menu"
	// NodeKindCallable executes a registered callable when invoked.
	NodeKindCallable = "callable"
)

// Option is a single menu entry: a selection key (usually a digit) mapped to
// a target coordinate or alias. Order is significant.
type Option struct {
	Key    string `json:"key" yaml:"key" mapstructure:"key"`
	Target string `json:"target" yaml:"target" mapstructure:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// Node is one addressable unit in the coordinate tree.
//
// Invariant: every strict prefix of a non-root coordinate resolves to a menu
// node; callable nodes are leaves.
type Node struct {
	// Coordinate is the dotted address, unique within the tree (e.g. "0.3.1").
	Coordinate string `json:"coordinate" yaml:"coordinate" mapstructure:"coordinate"`

	// Name is the logical name of this node (final segment of its logical
	// path). Menu nodes with a name act as family bases for prefix
	// resolution (e.g. "files.list" -> "<files base>.list").
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`

	Kind string `json:"kind" yaml:"kind" mapstructure:"kind"`

	Prompt      string `json:"prompt,omitempty" yaml:"prompt,omitempty" mapstructure:"prompt"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// Options lists the menu entries, in presentation order.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`

	// ArgsTemplate maps parameter names to literal defaults or "$variable" /
	// "{$variable}" placeholders. Only placeholder entries are merged into
	// caller-supplied arguments at invocation time.
	ArgsTemplate *Value `json:"args_template,omitempty" yaml:"args_template,omitempty" mapstructure:"-"`

	// Callable is the registry key of the callable backing this node.
	// Only meaningful when Kind == NodeKindCallable.
	Callable string `json:"callable,omitempty" yaml:"callable,omitempty" mapstructure:"callable"`
}

// IsCallable reports whether the node executes a callable when invoked.
func (n *Node) IsCallable() bool { return n.Kind == NodeKindCallable }

// OptionTarget returns the target for a menu key, if present.
func (n *Node) OptionTarget(key string) (string, bool) {
	for _, opt := range n.Options {
		if opt.Key == key {
			return opt.Target, true
		}
	}
	return "", false
}
