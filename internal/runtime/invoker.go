package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/lattice/internal/metrics"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Invoker resolves a target node to a callable, substitutes variables into
// its arguments, shapes the call per the declared signature and executes it.
// Failures never propagate: they become structured error results recorded
// like any other step, so a chain can continue past a failing step unless
// explicitly gated by "or" or "if".
type Invoker struct {
	tree     *Tree
	registry ports.CallableRegistry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	// template reports the crystallized pathway template bound to a
	// coordinate, if any. Set by the engine.
	template func(coordinate string) (*Template, bool)

	// replay executes a crystallized pathway template. Set by the engine.
	replay func(ctx context.Context, sess *domain.Session, tmpl *Template, entry map[string]any) (any, error)
}

// NewInvoker creates an invoker.
func NewInvoker(tree *Tree, registry ports.CallableRegistry, logger *slog.Logger, m *metrics.Metrics) *Invoker {
	return &Invoker{
		tree:     tree,
		registry: registry,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Invoke executes the node with the given parsed arguments and records the
// outcome in the session. ok reports invocation success (used for or-group
// short-circuiting and condition truthiness).
//
// A menu node target is a navigation step: it pushes the coordinate and
// succeeds with a position result.
func (inv *Invoker) Invoke(ctx context.Context, sess *domain.Session, node *domain.Node, args *domain.Value) (any, bool) {
	started := inv.now()

	if !node.IsCallable() {
		sess.Push(node.Coordinate)
		result := map[string]any{"position": node.Coordinate}
		sess.RecordStep(node.Coordinate, rawArgs(args), result, inv.now())
		inv.metrics.ObserveStep(inv.now().Sub(started).Seconds())
		return result, true
	}

	resolved, zeroArg := inv.resolveArgs(sess, node, args)

	var result any
	var err error
	if tmpl, isTemplate := inv.lookupTemplate(node.Coordinate); isTemplate {
		result, err = inv.replay(ctx, sess, tmpl, entryArgs(resolved, zeroArg))
	} else {
		result, err = inv.call(ctx, node, resolved, zeroArg)
	}
	ok := err == nil
	if err != nil {
		inv.logger.Debug("invocation failed", "target", node.Coordinate, "err", err)
		inv.metrics.IncInvocationErrors()
		result = domain.ErrorResult(node.Coordinate, resolved, err)
	}

	sess.RecordStep(node.Coordinate, recordedArgs(resolved, zeroArg), result, inv.now())
	inv.metrics.ObserveStep(inv.now().Sub(started).Seconds())
	return result, ok
}

// resolveArgs merges the node's args_template defaults (only entries whose
// value is a "$variable" placeholder) into the caller-supplied args, then
// substitutes variables. The bool result reports a zero-argument call: the
// "()" sentinel always forces it regardless of signature.
func (inv *Invoker) resolveArgs(sess *domain.Session, node *domain.Node, args *domain.Value) (any, bool) {
	if args != nil && args.Kind == domain.KindUnit {
		return nil, true
	}

	var merged domain.Value
	switch {
	case args == nil:
		merged = domain.ObjectValue(nil, map[string]domain.Value{})
	case args.Kind == domain.KindObject:
		keys := append([]string(nil), args.Keys...)
		fields := make(map[string]domain.Value, len(args.Fields))
		for k, v := range args.Fields {
			fields[k] = v
		}
		merged = domain.ObjectValue(keys, fields)
	default:
		// Non-object argument: substitution applies, no defaults to merge.
		return args.Resolve(sess.Lookup), false
	}

	if node.ArgsTemplate != nil && node.ArgsTemplate.Kind == domain.KindObject {
		for _, key := range node.ArgsTemplate.Keys {
			def := node.ArgsTemplate.Fields[key]
			if !def.IsRef() {
				continue
			}
			if _, present := merged.Fields[key]; !present {
				merged.Keys = append(merged.Keys, key)
				merged.Fields[key] = def
			}
		}
	}

	if args == nil && len(merged.Keys) == 0 {
		// No argument token and nothing merged: call with none.
		return nil, true
	}
	return merged.Resolve(sess.Lookup), false
}

func (inv *Invoker) lookupTemplate(coordinate string) (*Template, bool) {
	if inv.template == nil {
		return nil, false
	}
	return inv.template(coordinate)
}

// entryArgs shapes resolved arguments into a pathway entry-argument map.
func entryArgs(resolved any, zeroArg bool) map[string]any {
	if zeroArg {
		return map[string]any{}
	}
	if m, ok := resolved.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// call shapes the invocation per the callable's declared signature.
func (inv *Invoker) call(ctx context.Context, node *domain.Node, resolved any, zeroArg bool) (result any, err error) {
	fn, sig, found := inv.registry.Resolve(node.Callable)
	if !found {
		return nil, fmt.Errorf("callable %q not registered", node.Callable)
	}

	call := ports.Call{}
	if !zeroArg {
		switch sig.Kind {
		case ports.SignatureNullary:
			// Declared nullary: arguments are dropped.
		case ports.SignatureUnaryUnwrap:
			if m, ok := resolved.(map[string]any); ok && len(m) == 1 {
				if v, has := m[sig.Param]; has {
					call.Positional = []any{v}
					break
				}
			}
			call.Positional = []any{resolved}
		case ports.SignatureUnaryWhole:
			call.Positional = []any{resolved}
		case ports.SignatureKeyword:
			m, ok := resolved.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("callable %q takes keyword arguments, got %T", node.Callable, resolved)
			}
			call.Keyword = m
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callable %q panicked: %v", node.Callable, r)
		}
	}()
	return fn(ctx, call)
}

func rawArgs(args *domain.Value) any {
	if args == nil {
		return nil
	}
	return args.Interface()
}

func recordedArgs(resolved any, zeroArg bool) any {
	if zeroArg {
		return "()"
	}
	return resolved
}

// Truthy reports the condition value of a step outcome: a failed invocation
// or structured error result is false, as are nil, false, empty strings,
// zero numbers and empty collections.
func Truthy(result any, ok bool) bool {
	if !ok {
		return false
	}
	if domain.IsErrorResult(result) {
		return false
	}
	switch v := result.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	return true
}
