package domain

import "strings"

// ShortcutKind constants define alias behavior.
const (
	// ShortcutJump resolves the alias to a literal target coordinate.
	ShortcutJump = "jump"
	// ShortcutChain expands the alias to a chain-template string that may
	// contain "$name" placeholders.
	ShortcutChain = "chain"
)

// Shortcut is a user-defined alias: either a jump to a coordinate or a
// parameterized chain template.
type Shortcut struct {
	Name string `json:"name"`
	Kind string `json:"kind"`

	// Target is the literal coordinate for jump aliases.
	Target string `json:"target,omitempty"`

	// Template is the chain-template text for chain aliases.
	Template string `json:"template,omitempty"`

	// Params is the precomputed set of "$name" placeholders the template
	// requires, in first-occurrence order.
	Params []string `json:"params,omitempty"`
}

// NewJumpShortcut creates a jump alias.
func NewJumpShortcut(name, target string) Shortcut {
	return Shortcut{Name: name, Kind: ShortcutJump, Target: target}
}

// NewChainShortcut creates a chain alias, precomputing its parameters.
func NewChainShortcut(name, template string) Shortcut {
	return Shortcut{
		Name:     name,
		Kind:     ShortcutChain,
		Template: template,
		Params:   TemplateParams(template),
	}
}

// TemplateParams extracts the distinct "$name" placeholders from a chain
// template, in first-occurrence order. Both "$name" and "{$name}" spellings
// count.
func TemplateParams(template string) []string {
	var params []string
	seen := make(map[string]bool)
	for i := 0; i < len(template); i++ {
		if template[i] != '$' {
			continue
		}
		j := i + 1
		for j < len(template) && isIdentByte(template[j], j > i+1) {
			j++
		}
		if j == i+1 {
			continue
		}
		name := template[i+1 : j]
		if !seen[name] {
			seen[name] = true
			params = append(params, name)
		}
		i = j - 1
	}
	return params
}

func isIdentByte(b byte, allowDigit bool) bool {
	switch {
	case b == '_':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return allowDigit
	}
	return false
}

// Substitute expands "{$name}" occurrences in the template text with the
// given lookup. Placeholders with no binding are left verbatim, favoring
// debuggability over strictness. Quoted "$name" references inside argument
// literals are intentionally not touched here: they survive into the parsed
// chain and are substituted as typed values at execution time.
func (sc Shortcut) Substitute(lookup Lookup) string {
	if sc.Kind != ShortcutChain || lookup == nil {
		return sc.Template
	}
	out := sc.Template
	for _, p := range sc.Params {
		v, ok := lookup(p)
		if !ok {
			continue
		}
		out = strings.ReplaceAll(out, "{$"+p+"}", Stringify(v))
	}
	return out
}
