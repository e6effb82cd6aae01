package registry_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
)

func TestRegisterAndResolve(t *testing.T) {
	r := registry.New()
	r.RegisterUnary("demo/echo", "value", func(ctx context.Context, call ports.Call) (any, error) {
		return call.Positional[0], nil
	})

	fn, sig, ok := r.Resolve("demo/echo")
	require.True(t, ok)
	assert.Equal(t, ports.SignatureUnaryUnwrap, sig.Kind)
	assert.Equal(t, "value", sig.Param)

	out, err := fn(context.Background(), ports.Call{Positional: []any{"hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, _, ok = r.Resolve("demo/absent")
	assert.False(t, ok)
}

func TestLaterRegistrationWins(t *testing.T) {
	r := registry.New()
	r.RegisterNullary("demo/v", func(ctx context.Context, call ports.Call) (any, error) { return 1, nil })
	r.RegisterNullary("demo/v", func(ctx context.Context, call ports.Call) (any, error) { return 2, nil })

	fn, _, ok := r.Resolve("demo/v")
	require.True(t, ok)
	out, _ := fn(context.Background(), ports.Call{})
	assert.Equal(t, 2, out)
	assert.Len(t, r.Names(), 1)
}

func TestBuiltinsInstalled(t *testing.T) {
	r := registry.New()
	registry.RegisterBuiltins(r)

	for _, name := range []string{"system/echo", "system/now", "system/add", "system/sleep"} {
		_, _, ok := r.Resolve(name)
		assert.True(t, ok, "builtin %s missing", name)
	}
}

func TestBuiltinAdd(t *testing.T) {
	r := registry.New()
	registry.RegisterBuiltins(r)
	fn, sig, ok := r.Resolve("system/add")
	require.True(t, ok)
	assert.Equal(t, ports.SignatureKeyword, sig.Kind)

	out, err := fn(context.Background(), ports.Call{Keyword: map[string]any{
		"a": json.Number("2"),
		"b": json.Number("3.5"),
	}})
	require.NoError(t, err)
	assert.Equal(t, 5.5, out)

	_, err = fn(context.Background(), ports.Call{Keyword: map[string]any{"a": "nope", "b": json.Number("1")}})
	assert.Error(t, err)
}

func TestBuiltinEchoEmptyCall(t *testing.T) {
	r := registry.New()
	registry.RegisterBuiltins(r)
	fn, _, _ := r.Resolve("system/echo")

	out, err := fn(context.Background(), ports.Call{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}
