package loam

// NodeMetadata is the frontmatter header of a lattice node file. It uses
// "mapstructure" tags to match the YAML keys Loam decodes.
type NodeMetadata struct {
	// Coordinate overrides the file-derived coordinate (filename sans
	// extension, slashes as dots).
	Coordinate string `json:"coordinate" mapstructure:"coordinate"`

	// Name is the logical name; named menu nodes become family bases.
	Name string `json:"name" mapstructure:"name"`

	// Kind is "menu" or "callable". Defaults to "callable" when a callable
	// is declared, "menu" otherwise.
	Kind string `json:"kind" mapstructure:"kind"`

	Prompt string `json:"prompt" mapstructure:"prompt"`

	// Options lists the menu entries, in order.
	Options []OptionMetadata `json:"options" mapstructure:"options"`

	// Callable is the registry key backing a callable node.
	Callable string `json:"callable" mapstructure:"callable"`

	// Args is the args_template: parameter names mapped to literal defaults
	// or "$variable" placeholders.
	Args map[string]any `json:"args" mapstructure:"args"`
}

// OptionMetadata is one menu entry in frontmatter. "text" is accepted as an
// alias for "label".
type OptionMetadata struct {
	Key    string `json:"key" mapstructure:"key"`
	Target string `json:"target" mapstructure:"target"`
	Label  string `json:"label" mapstructure:"label"`
	Text   string `json:"text" mapstructure:"text"`
}
