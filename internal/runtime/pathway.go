package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
)

// Template kinds. A constrained template keeps at least one variable
// reference from the recorded commands, so its behavior depends on session
// state at replay time. The distinction is informational; entry parameters
// are the authoritative contract either way.
const (
	TemplateConstrained   = "constrained"
	TemplateUnconstrained = "unconstrained"
)

// PathwayStep is one normalized step of a recorded pathway: a resolvable
// target plus its parsed arguments.
type PathwayStep struct {
	Target string        `json:"target"`
	Args   *domain.Value `json:"args,omitempty"`
}

// Template is a crystallized pathway: the analyzed step sequence plus the
// synthesized entry parameters callers must (or may) supply.
type Template struct {
	Name       string        `json:"name"`
	Coordinate string        `json:"coordinate"`
	Kind       string        `json:"kind"`
	Entry      []string      `json:"entry_args,omitempty"`
	Steps      []PathwayStep `json:"steps"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Pathways owns crystallized templates: analysis of recorded steps,
// coordinate allocation in the current family, and replay. Replay goes back
// through the executor so replayed steps resolve, substitute and record
// exactly like typed ones.
type Pathways struct {
	tree   *Tree
	logger *slog.Logger
	now    func() time.Time

	// exec runs one replayed step. Wired to Executor.Invoke by the engine.
	exec func(ctx context.Context, sess *domain.Session, target string, args *domain.Value) (any, bool)

	mu        sync.RWMutex
	templates map[string]*Template // coordinate -> template
}

// NewPathways creates the pathway engine over a tree.
func NewPathways(tree *Tree, logger *slog.Logger) *Pathways {
	return &Pathways{
		tree:      tree,
		logger:    logger,
		now:       time.Now,
		templates: make(map[string]*Template),
	}
}

// Lookup reports the template crystallized at a coordinate, if any.
func (p *Pathways) Lookup(coordinate string) (*Template, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.templates[coordinate]
	return t, ok
}

// Templates returns all crystallized templates, sorted by coordinate.
func (p *Pathways) Templates() []*Template {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Template, 0, len(p.templates))
	for _, t := range p.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coordinate < out[j].Coordinate })
	return out
}

// Analyze turns recorded steps into a parameterized template body. Literal
// argument values are replaced by synthesized "step{N}_{key}" references and
// become entry parameters, in step order then key order. Values that already
// carry a variable reference are preserved verbatim and stay out of the
// entry parameters; their presence marks the template constrained.
func Analyze(steps []PathwayStep) (body []PathwayStep, entry []string, kind string) {
	kind = TemplateUnconstrained
	body = make([]PathwayStep, len(steps))
	for i, st := range steps {
		n := i + 1
		out := PathwayStep{Target: st.Target}
		if st.Args == nil || st.Args.Kind == domain.KindUnit {
			out.Args = st.Args
			body[i] = out
			continue
		}
		args := *st.Args
		if args.Kind == domain.KindObject {
			keys := append([]string(nil), args.Keys...)
			fields := make(map[string]domain.Value, len(args.Fields))
			for _, key := range keys {
				field := args.Fields[key]
				if containsRef(field) {
					kind = TemplateConstrained
					fields[key] = field
					continue
				}
				param := fmt.Sprintf("step%d_%s", n, key)
				fields[key] = domain.Value{Kind: domain.KindVariableRef, Ref: param}
				entry = append(entry, param)
			}
			v := domain.ObjectValue(keys, fields)
			out.Args = &v
		} else if containsRef(args) {
			kind = TemplateConstrained
			out.Args = st.Args
		} else {
			param := fmt.Sprintf("step%d_value", n)
			v := domain.Value{Kind: domain.KindVariableRef, Ref: param}
			out.Args = &v
			entry = append(entry, param)
		}
		body[i] = out
	}
	return body, entry, kind
}

// containsRef reports whether the value carries a variable reference
// anywhere in its tree.
func containsRef(v domain.Value) bool {
	if v.IsRef() {
		return true
	}
	switch v.Kind {
	case domain.KindArray:
		for _, item := range v.Array {
			if containsRef(item) {
				return true
			}
		}
	case domain.KindObject:
		for _, item := range v.Fields {
			if containsRef(item) {
				return true
			}
		}
	}
	return false
}

// Crystallize analyzes the steps, allocates the next integer child
// coordinate in the family of the session's current position, and inserts an
// immutable callable node bound to the template.
func (p *Pathways) Crystallize(sess *domain.Session, name string, steps []PathwayStep) (*Template, error) {
	if name == "" {
		return nil, fmt.Errorf("pathway name is empty")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("pathway %q has no steps", name)
	}

	body, entry, kind := Analyze(steps)
	base := p.tree.FamilyOf(sess.Position)
	coord := p.tree.NextChild(base)

	tmpl := &Template{
		Name:       name,
		Coordinate: coord,
		Kind:       kind,
		Entry:      entry,
		Steps:      body,
		CreatedAt:  p.now(),
	}

	node := &domain.Node{
		Coordinate:  coord,
		Name:        name,
		Kind:        domain.NodeKindCallable,
		Callable:    "pathway/" + name,
		Description: describeTemplate(tmpl),
	}
	if err := p.tree.AddNode(node); err != nil {
		return nil, fmt.Errorf("failed to crystallize pathway %q: %w", name, err)
	}

	p.mu.Lock()
	p.templates[coord] = tmpl
	p.mu.Unlock()

	p.logger.Info("pathway crystallized",
		"name", name, "coordinate", coord, "kind", kind, "steps", len(body), "entry_args", len(entry))
	return tmpl, nil
}

func describeTemplate(t *Template) string {
	if len(t.Entry) == 0 {
		return fmt.Sprintf("Crystallized pathway (%d steps)", len(t.Steps))
	}
	return fmt.Sprintf("Crystallized pathway (%d steps, args: %s)",
		len(t.Steps), strings.Join(t.Entry, ", "))
}

// Replay executes a template's steps in order. Entry arguments bind the
// synthesized parameters; step results accumulate in a replay-local overlay
// so references between template steps bind to this replay, not to whatever
// the outer session ran before. Anything else falls through to the session.
// A failing step aborts the replay.
func (p *Pathways) Replay(ctx context.Context, sess *domain.Session, tmpl *Template, entry map[string]any) (any, error) {
	if p.exec == nil {
		return nil, fmt.Errorf("pathway engine is not wired for replay")
	}

	local := make(map[string]any, len(tmpl.Steps))
	lookup := func(name string) (any, bool) {
		if v, ok := entry[name]; ok {
			return v, true
		}
		if v, ok := local[name]; ok {
			return v, true
		}
		return sess.Lookup(name)
	}

	var last any
	for i, st := range tmpl.Steps {
		args := st.Args
		if args != nil {
			bound := bindValue(*args, lookup)
			args = &bound
		}
		result, ok := p.exec(ctx, sess, st.Target, args)
		local[fmt.Sprintf("step%d_result", i+1)] = result
		last = result
		if !ok {
			return nil, fmt.Errorf("pathway %q aborted at step %d (%s)", tmpl.Name, i+1, st.Target)
		}
	}
	return last, nil
}

// bindValue substitutes resolvable references in a value tree, leaving
// unresolved ones intact for the invoker's session-level pass.
func bindValue(v domain.Value, lookup domain.Lookup) domain.Value {
	switch v.Kind {
	case domain.KindVariableRef:
		if val, ok := lookup(v.Ref); ok {
			return valueOf(val)
		}
		return v
	case domain.KindTemplate:
		return domain.StringValue(domain.Stringify(v.Resolve(lookup)))
	case domain.KindArray:
		items := make([]domain.Value, len(v.Array))
		for i, item := range v.Array {
			items[i] = bindValue(item, lookup)
		}
		return domain.ArrayValue(items)
	case domain.KindObject:
		fields := make(map[string]domain.Value, len(v.Fields))
		for k, item := range v.Fields {
			fields[k] = bindValue(item, lookup)
		}
		return domain.ObjectValue(append([]string(nil), v.Keys...), fields)
	}
	return v
}

// valueOf lifts a native value back into the tagged representation. Strings
// stay plain strings: data that happens to look like a reference must not
// become one.
func valueOf(val any) domain.Value {
	switch t := val.(type) {
	case nil:
		return domain.Null()
	case bool:
		return domain.BoolValue(t)
	case json.Number:
		return domain.NumberValue(t)
	case int:
		return domain.NumberValue(json.Number(fmt.Sprintf("%d", t)))
	case int64:
		return domain.NumberValue(json.Number(fmt.Sprintf("%d", t)))
	case float64:
		return domain.NumberValue(json.Number(strings.TrimSuffix(fmt.Sprintf("%v", t), ".0")))
	case string:
		return domain.Value{Kind: domain.KindString, Str: t}
	case []any:
		items := make([]domain.Value, len(t))
		for i, item := range t {
			items[i] = valueOf(item)
		}
		return domain.ArrayValue(items)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make(map[string]domain.Value, len(t))
		for k, item := range t {
			fields[k] = valueOf(item)
		}
		return domain.ObjectValue(keys, fields)
	}
	return domain.Value{Kind: domain.KindString, Str: domain.Stringify(val)}
}
