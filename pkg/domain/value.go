package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValueKind discriminates the tagged argument value representation.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	// KindVariableRef is a string that is exactly "$name": it is replaced
	// wholesale by the referenced value (of any type) at substitution time.
	KindVariableRef
	// KindTemplate is a string containing one or more "{$name}" occurrences.
	// Each occurrence is textually replaced by the string form of the
	// referenced value; unresolved occurrences are left verbatim.
	KindTemplate
	// KindUnit is the literal two-character token "()": invoke with zero
	// arguments regardless of the callable's signature. Distinct from "{}".
	KindUnit
)

// TemplateSegment is one piece of a template string: either a literal run
// or a "{$name}" reference. Exactly one field is meaningful.
type TemplateSegment struct {
	Literal string `json:"literal,omitempty"`
	Ref     string `json:"ref,omitempty"`
	IsRef   bool   `json:"is_ref,omitempty"`
}

// Value is a tagged argument value. Variable references and template strings
// are classified at parse time so substitution is a typed tree walk instead
// of string scanning at call time.
type Value struct {
	Kind     ValueKind
	Bool     bool
	Number   json.Number
	Str      string
	Array    []Value
	Keys     []string // object key order, as written
	Fields   map[string]Value
	Ref      string
	Segments []TemplateSegment
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Unit returns the "()" sentinel value.
func Unit() Value { return Value{Kind: KindUnit} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NumberValue wraps a number.
func NumberValue(n json.Number) Value { return Value{Kind: KindNumber, Number: n} }

// StringValue classifies a raw string into a plain string, a variable
// reference ("$name") or a template string (contains "{$name}").
func StringValue(s string) Value {
	if name, ok := refName(s); ok {
		return Value{Kind: KindVariableRef, Ref: name}
	}
	if segs, ok := templateSegments(s); ok {
		return Value{Kind: KindTemplate, Str: s, Segments: segs}
	}
	return Value{Kind: KindString, Str: s}
}

// ObjectValue builds an object preserving the given key order.
func ObjectValue(keys []string, fields map[string]Value) Value {
	return Value{Kind: KindObject, Keys: keys, Fields: fields}
}

// ArrayValue wraps a slice.
func ArrayValue(items []Value) Value { return Value{Kind: KindArray, Array: items} }

// refName reports whether s is exactly "$name" for an identifier name.
func refName(s string) (string, bool) {
	if len(s) < 2 || s[0] != '$' {
		return "", false
	}
	name := s[1:]
	if !isIdent(name) {
		return "", false
	}
	return name, true
}

// isIdent reports whether s is a plausible variable identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// templateSegments splits s on "{$name}" occurrences. The bool result is
// false when s contains no reference at all.
func templateSegments(s string) ([]TemplateSegment, bool) {
	var segs []TemplateSegment
	found := false
	rest := s
	for {
		start := strings.Index(rest, "{$")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			break
		}
		end += start
		name := rest[start+2 : end]
		if !isIdent(name) {
			// Malformed reference: emit up to and including the opener as
			// literal text and keep scanning.
			segs = append(segs, TemplateSegment{Literal: rest[:start+2]})
			rest = rest[start+2:]
			continue
		}
		if start > 0 {
			segs = append(segs, TemplateSegment{Literal: rest[:start]})
		}
		segs = append(segs, TemplateSegment{Ref: name, IsRef: true})
		found = true
		rest = rest[end+1:]
	}
	if !found {
		return nil, false
	}
	if rest != "" {
		segs = append(segs, TemplateSegment{Literal: rest})
	}
	return segs, true
}

// ParseValue decodes a JSON-encoded argument token into a Value, preserving
// object key order and classifying strings. The literal token "()" decodes
// to the Unit sentinel.
func ParseValue(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "()" {
		return Unit(), nil
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("invalid argument literal %q: %w", raw, err)
	}
	// Trailing garbage after a complete value is an error.
	if dec.More() {
		return Value{}, fmt.Errorf("invalid argument literal %q: trailing data", raw)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		switch t {
		case '{':
			keys := []string{}
			fields := make(map[string]Value)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				if _, dup := fields[key]; !dup {
					keys = append(keys, key)
				}
				fields[key] = val
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return ObjectValue(keys, fields), nil
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return ArrayValue(items), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// Lookup resolves a variable name to its current value.
type Lookup func(name string) (any, bool)

// Resolve materializes the value as a native Go value, substituting variable
// references via lookup. Unresolved references are left verbatim ("$name" or
// "{$name}") rather than erroring.
func (v Value) Resolve(lookup Lookup) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Number
	case KindString:
		return v.Str
	case KindUnit:
		return nil
	case KindVariableRef:
		if lookup != nil {
			if val, ok := lookup(v.Ref); ok {
				return val
			}
		}
		return "$" + v.Ref
	case KindTemplate:
		var sb strings.Builder
		for _, seg := range v.Segments {
			if !seg.IsRef {
				sb.WriteString(seg.Literal)
				continue
			}
			if lookup != nil {
				if val, ok := lookup(seg.Ref); ok {
					sb.WriteString(Stringify(val))
					continue
				}
			}
			sb.WriteString("{$" + seg.Ref + "}")
		}
		return sb.String()
	case KindArray:
		out := make([]any, 0, len(v.Array))
		for _, item := range v.Array {
			out = append(out, item.Resolve(lookup))
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Fields))
		for k, item := range v.Fields {
			out[k] = item.Resolve(lookup)
		}
		return out
	}
	return nil
}

// Interface materializes the value without substitution: references render
// back to their source form.
func (v Value) Interface() any {
	return v.Resolve(nil)
}

// IsRef reports whether the value is a variable reference or a template
// containing at least one reference.
func (v Value) IsRef() bool {
	return v.Kind == KindVariableRef || v.Kind == KindTemplate
}

// Stringify renders a native value for textual template substitution.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// MarshalJSON renders the value in its source form, preserving object key
// order. References serialize back to their "$name" / "{$name}" spelling.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull, KindUnit:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return []byte(v.Number.String()), nil
	case KindString, KindTemplate:
		return json.Marshal(v.Str)
	case KindVariableRef:
		return json.Marshal("$" + v.Ref)
	case KindArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range v.Array {
			if i > 0 {
				sb.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			sb.Write(b)
		}
		sb.WriteByte(']')
		return []byte(sb.String()), nil
	case KindObject:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, key := range v.Keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			sb.Write(kb)
			sb.WriteByte(':')
			vb, err := v.Fields[key].MarshalJSON()
			if err != nil {
				return nil, err
			}
			sb.Write(vb)
		}
		sb.WriteByte('}')
		return []byte(sb.String()), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON re-parses a serialized value, re-classifying strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
