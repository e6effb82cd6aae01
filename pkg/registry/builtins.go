package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
)

// RegisterBuiltins installs the system callables every shell carries:
// small utilities for echoing, timing and arithmetic that trees can bind
// system nodes to.
func RegisterBuiltins(r *Registry) {
	r.Register("system/echo", ports.Signature{Kind: ports.SignatureUnaryUnwrap, Param: "value"},
		func(ctx context.Context, call ports.Call) (any, error) {
			if len(call.Positional) == 0 {
				return "", nil
			}
			return call.Positional[0], nil
		})

	r.RegisterNullary("system/now",
		func(ctx context.Context, call ports.Call) (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		})

	r.RegisterKeyword("system/add", []string{"a", "b"},
		func(ctx context.Context, call ports.Call) (any, error) {
			a, err := asFloat(call.Keyword["a"])
			if err != nil {
				return nil, fmt.Errorf("a: %w", err)
			}
			b, err := asFloat(call.Keyword["b"])
			if err != nil {
				return nil, fmt.Errorf("b: %w", err)
			}
			return a + b, nil
		})

	r.Register("system/sleep", ports.Signature{Kind: ports.SignatureUnaryUnwrap, Param: "ms"},
		func(ctx context.Context, call ports.Call) (any, error) {
			ms := 0.0
			if len(call.Positional) > 0 {
				var err error
				ms, err = asFloat(call.Positional[0])
				if err != nil {
					return nil, fmt.Errorf("ms: %w", err)
				}
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(ms) * time.Millisecond):
				return map[string]any{"slept_ms": ms}, nil
			}
		})
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case nil:
		return 0, fmt.Errorf("missing number")
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
