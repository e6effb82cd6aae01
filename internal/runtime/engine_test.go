package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/pkg/domain"
)

func TestDispatchEmptyInputRendersMenu(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "")
	require.Equal(t, domain.ResponseMenu, resp.Kind)
	assert.Contains(t, resp.Content, "Where to?")
	assert.Contains(t, resp.Content, "`0`")
	assert.Contains(t, resp.Content, "1. Tools")
	assert.Equal(t, "0", resp.Position)
}

func TestDispatchDigitNavigatesAndRendersMenu(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "1")
	require.Equal(t, domain.ResponseMenu, resp.Kind)
	assert.Equal(t, "0.1", sess.Position)
	assert.Equal(t, []string{"0", "0.1"}, sess.Stack)
}

func TestDispatchDigitInvokesCallableOption(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	f.dispatch(sess, "1") // 0.1 tools
	resp := f.dispatch(sess, `1 {"value": "hi"}`)
	require.Equal(t, domain.ResponseResult, resp.Kind)
	assert.Equal(t, "hi", resp.Data)
	// Invoking a callable does not move the position.
	assert.Equal(t, "0.1", sess.Position)
}

func TestDispatchUnknownOption(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "9")
	assert.Equal(t, domain.ResponseError, resp.Kind)
	assert.Contains(t, resp.Content, "option")
}

func TestDispatchBackPopsStack(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	f.dispatch(sess, "1")
	resp := f.dispatch(sess, "back")
	require.Equal(t, domain.ResponseMenu, resp.Kind)
	assert.Equal(t, "0", sess.Position)
	assert.Equal(t, []string{"0"}, sess.Stack)
}

func TestDispatchBackAtBottom(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "back")
	assert.Equal(t, domain.ResponseInfo, resp.Kind)
	assert.Contains(t, resp.Content, "starting position")
}

func TestDispatchExit(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "exit")
	assert.Equal(t, domain.ResponseExit, resp.Kind)
}

func TestDispatchJumpByName(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `jump echo {"value": "direct"}`)
	require.Equal(t, domain.ResponseResult, resp.Kind)
	assert.Equal(t, "direct", resp.Data)
}

func TestDispatchJumpUnresolvable(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "jump nonsense_target_xyz")
	assert.Equal(t, domain.ResponseError, resp.Kind)
	assert.Equal(t, 0, sess.StepCount)
}

func TestDispatchUnknownCommand(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "frobnicate")
	assert.Equal(t, domain.ResponseError, resp.Kind)
	assert.Contains(t, resp.Content, "unknown command")
}

func TestJumpShortcutRoundTrip(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "shortcut e 0.1.1")
	require.Equal(t, domain.ResponseInfo, resp.Kind)

	resp = f.dispatch(sess, `e {"value": "aliased"}`)
	require.Equal(t, domain.ResponseResult, resp.Kind)
	assert.Equal(t, "aliased", resp.Data)
}

func TestChainShortcutBindsParams(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, `shortcut greet "chain echo {\"value\": \"hello {$name}\"}"`)
	require.Equal(t, domain.ResponseInfo, resp.Kind)
	assert.Contains(t, resp.Content, "$name")

	resp = f.dispatch(sess, `greet {"name": "ada"}`)
	require.Equal(t, domain.ResponseResult, resp.Kind)
	assert.Equal(t, "hello ada", lastOutcome(t, resp).Result)

	// The bound parameter persists as a session variable.
	v, ok := sess.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "ada", v)
}

func TestShortcutCycleRejectedAtDefinition(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	require.Equal(t, domain.ResponseInfo, f.dispatch(sess, "shortcut a b").Kind)
	resp := f.dispatch(sess, "shortcut b a")
	require.Equal(t, domain.ResponseError, resp.Kind)
	assert.Contains(t, resp.Content, "references itself")

	// The failed definition must not be installed.
	_, ok := sess.Shortcut("b")
	assert.False(t, ok)
}

func TestShortcutSelfCycleRejected(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "shortcut a a")
	assert.Equal(t, domain.ResponseError, resp.Kind)
}

func TestShortcutUsageError(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	resp := f.dispatch(sess, "shortcut onlyname")
	assert.Equal(t, domain.ResponseError, resp.Kind)
	assert.Contains(t, resp.Content, "usage")
}

func TestDispatchNeverPanics(t *testing.T) {
	f := newFixture(t)
	sess := f.engine.NewSession()

	inputs := []string{
		"", "menu", "back", "0", "99", "jump", "chain", "shortcut",
		"chain ->", "chain if", "chain while x", `chain echo {`,
		"jump $undefined", "save_emergent_pathway nothing",
	}
	for _, input := range inputs {
		resp := f.dispatch(sess, input)
		require.NotNil(t, resp, "input %q", input)
	}
}
