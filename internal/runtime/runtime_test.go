package runtime_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
)

// fixture bundles an engine over a small tree with stateful test callables.
type fixture struct {
	engine  *runtime.Engine
	counter int
	calls   []string
}

func newFixture(t *testing.T, opts ...runtime.Option) *fixture {
	t.Helper()

	loader := memory.NewFromNodes(
		&domain.Node{Coordinate: "0", Name: "home", Kind: domain.NodeKindMenu,
			Prompt: "Where to?",
			Options: []domain.Option{
				{Key: "1", Target: "0.1", Label: "Tools"},
				{Key: "2", Target: "0.2", Label: "Count"},
			}},
		&domain.Node{Coordinate: "0.1", Name: "tools", Kind: domain.NodeKindMenu,
			Options: []domain.Option{
				{Key: "1", Target: "0.1.1", Label: "Echo"},
			}},
		&domain.Node{Coordinate: "0.1.1", Name: "echo", Kind: domain.NodeKindCallable, Callable: "test/echo"},
		&domain.Node{Coordinate: "0.2", Name: "count", Kind: domain.NodeKindCallable, Callable: "test/count"},
		&domain.Node{Coordinate: "0.3", Name: "check", Kind: domain.NodeKindCallable, Callable: "test/check"},
		&domain.Node{Coordinate: "0.4", Name: "fail", Kind: domain.NodeKindCallable, Callable: "test/fail"},
		&domain.Node{Coordinate: "0.5", Name: "probe", Kind: domain.NodeKindCallable, Callable: "test/probe"},
	)

	f := &fixture{}

	reg := registry.New()
	reg.RegisterUnary("test/echo", "value", func(ctx context.Context, call ports.Call) (any, error) {
		f.calls = append(f.calls, "echo")
		if len(call.Positional) == 0 {
			return "", nil
		}
		return call.Positional[0], nil
	})
	reg.RegisterNullary("test/count", func(ctx context.Context, call ports.Call) (any, error) {
		f.calls = append(f.calls, "count")
		f.counter++
		return f.counter, nil
	})
	reg.RegisterUnary("test/check", "limit", func(ctx context.Context, call ports.Call) (any, error) {
		f.calls = append(f.calls, "check")
		limit, err := numArg(call)
		if err != nil {
			return nil, err
		}
		return float64(f.counter) < limit, nil
	})
	reg.RegisterNullary("test/fail", func(ctx context.Context, call ports.Call) (any, error) {
		f.calls = append(f.calls, "fail")
		return nil, fmt.Errorf("deliberate failure")
	})
	reg.RegisterUnary("test/probe", "value", func(ctx context.Context, call ports.Call) (any, error) {
		f.calls = append(f.calls, "probe")
		return len(call.Positional), nil
	})

	engine, err := runtime.NewEngine(loader, reg, opts...)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func numArg(call ports.Call) (float64, error) {
	if len(call.Positional) == 0 {
		return 0, fmt.Errorf("missing number")
	}
	n, ok := call.Positional[0].(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", call.Positional[0])
	}
	return n.Float64()
}

// dispatch runs one command against the session.
func (f *fixture) dispatch(sess *domain.Session, input string) *domain.Response {
	return f.engine.Dispatch(context.Background(), sess, input)
}

// countOf tallies how often a callable ran.
func (f *fixture) countOf(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}
