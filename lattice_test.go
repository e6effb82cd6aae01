package lattice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lattice "github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
)

func demoLoader() *memory.Loader {
	return memory.NewFromNodes(
		&domain.Node{Coordinate: "0", Name: "home", Kind: domain.NodeKindMenu,
			Prompt: "Pick one.",
			Options: []domain.Option{
				{Key: "1", Target: "0.1", Label: "Echo"},
			}},
		&domain.Node{Coordinate: "0.1", Name: "echo", Kind: domain.NodeKindCallable, Callable: "system/echo"},
	)
}

func TestNewRequiresTreePathOrLoader(t *testing.T) {
	_, err := lattice.New("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "treePath")
}

func TestShellDispatchWithBuiltins(t *testing.T) {
	shell, err := lattice.New("", lattice.WithLoader(demoLoader()))
	require.NoError(t, err)

	sess := shell.NewSession()
	resp := shell.Dispatch(context.Background(), sess, `chain echo {"value": "hello"}`)
	require.Equal(t, domain.ResponseResult, resp.Kind)
	assert.Equal(t, 1, sess.StepCount)
}

func TestShellDispatchNeverReturnsNil(t *testing.T) {
	shell, err := lattice.New("", lattice.WithLoader(demoLoader()))
	require.NoError(t, err)

	sess := shell.NewSession()
	for _, input := range []string{"", "nope", "chain ->", "9"} {
		resp := shell.Dispatch(context.Background(), sess, input)
		require.NotNil(t, resp, "input %q", input)
	}
}

func TestShellWithRoot(t *testing.T) {
	loader := memory.NewFromNodes(
		&domain.Node{Coordinate: "start", Name: "start", Kind: domain.NodeKindMenu, Prompt: "Hi."},
	)
	shell, err := lattice.New("", lattice.WithLoader(loader), lattice.WithRoot("start"))
	require.NoError(t, err)

	sess := shell.NewSession()
	assert.Equal(t, "start", sess.Position)
	assert.Equal(t, []string{"start"}, sess.Stack)
}

func TestShellNodesAndMermaid(t *testing.T) {
	shell, err := lattice.New("", lattice.WithLoader(demoLoader()))
	require.NoError(t, err)

	nodes := shell.Nodes()
	assert.Len(t, nodes, 2)

	out := shell.Mermaid(nil)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "home")

	sess := shell.NewSession()
	withSession := shell.Mermaid(sess)
	assert.NotEqual(t, out, withSession, "session overlay must highlight the current node")
}
