package loam_test

import (
	"os"
	"path/filepath"
	"testing"

	upstream "github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	adapter "github.com/aretw0/lattice/pkg/adapters/loam"
	"github.com/aretw0/lattice/pkg/domain"
)

// writeNode writes one markdown node file with YAML frontmatter.
func writeNode(t *testing.T, dir, name string, meta map[string]any, body string) {
	t.Helper()
	fm, err := yaml.Marshal(meta)
	require.NoError(t, err)
	content := "---\n" + string(fm) + "---\n\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newLoader(t *testing.T, dir string) *adapter.Loader {
	t.Helper()
	repo, err := upstream.Init(dir,
		upstream.WithStrict(true),
		upstream.WithVersioning(false),
		upstream.WithForceTemp(false),
	)
	require.NoError(t, err)
	return adapter.New(upstream.NewTypedRepository[adapter.NodeMetadata](repo))
}

func TestGetNodeConvertsMenu(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "0.md", map[string]any{
		"coordinate": "0",
		"name":       "home",
		"kind":       "menu",
		"prompt":     "Where to?",
		"options": []map[string]any{
			{"key": "1", "target": "0.1", "label": "Files"},
			{"target": "0.2", "text": "Settings"}, // key defaults, text aliases label
		},
	}, "The root menu.")
	writeNode(t, dir, "0.1.md", map[string]any{"coordinate": "0.1", "name": "files", "kind": "menu"}, "")
	writeNode(t, dir, "0.2.md", map[string]any{"coordinate": "0.2", "name": "settings", "kind": "menu"}, "")

	node, err := newLoader(t, dir).GetNode("0")
	require.NoError(t, err)

	assert.Equal(t, "home", node.Name)
	assert.Equal(t, domain.NodeKindMenu, node.Kind)
	assert.Equal(t, "Where to?", node.Prompt)
	assert.Equal(t, "The root menu.", node.Description)
	require.Len(t, node.Options, 2)
	assert.Equal(t, domain.Option{Key: "1", Target: "0.1", Label: "Files"}, node.Options[0])
	assert.Equal(t, domain.Option{Key: "2", Target: "0.2", Label: "Settings"}, node.Options[1])
}

func TestGetNodeConvertsCallableWithArgs(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "0.1.md", map[string]any{
		"coordinate": "0.1",
		"name":       "greet",
		"callable":   "demo/greet",
		"args": map[string]any{
			"greeting": "hello",
			"name":     "$name",
		},
	}, "")

	node, err := newLoader(t, dir).GetNode("0.1")
	require.NoError(t, err)

	// Kind defaults to callable when a callable key is declared.
	assert.Equal(t, domain.NodeKindCallable, node.Kind)
	assert.Equal(t, "demo/greet", node.Callable)

	require.NotNil(t, node.ArgsTemplate)
	assert.Equal(t, "hello", node.ArgsTemplate.Fields["greeting"].Str)
	assert.Equal(t, domain.KindVariableRef, node.ArgsTemplate.Fields["name"].Kind)
	assert.Equal(t, "name", node.ArgsTemplate.Fields["name"].Ref)
}

func TestGetNodeRejectsInvalidMetadata(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "bad-kind.md", map[string]any{"coordinate": "1", "kind": "teleporter"}, "")
	writeNode(t, dir, "no-target.md", map[string]any{
		"coordinate": "2",
		"kind":       "menu",
		"options":    []map[string]any{{"key": "1", "label": "dangling"}},
	}, "")

	loader := newLoader(t, dir)
	_, err := loader.GetNode("1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")

	_, err = loader.GetNode("2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target")
}

func TestListNodesReportsCoordinates(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "0.md", map[string]any{"coordinate": "0", "kind": "menu"}, "")
	writeNode(t, dir, "0.1.md", map[string]any{"coordinate": "0.1", "callable": "a/b"}, "")

	coords, err := newLoader(t, dir).ListNodes()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0", "0.1"}, coords)
}

func TestListNodesDetectsCollisions(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "a.md", map[string]any{"coordinate": "0.1", "callable": "x/y"}, "")
	writeNode(t, dir, "b.md", map[string]any{"coordinate": "0.1", "callable": "x/z"}, "")

	_, err := newLoader(t, dir).ListNodes()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision")
}
