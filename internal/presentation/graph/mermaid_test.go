package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/pkg/domain"
)

func demoNodes() []*domain.Node {
	return []*domain.Node{
		{Coordinate: "0", Name: "home", Kind: domain.NodeKindMenu,
			Options: []domain.Option{{Key: "1", Target: "0.1", Label: "Echo"}}},
		{Coordinate: "0.1", Name: "echo", Kind: domain.NodeKindCallable, Callable: "system/echo"},
	}
}

func TestGenerateMermaidShapesAndEdges(t *testing.T) {
	out := graph.GenerateMermaid(demoNodes(), nil)

	assert.Contains(t, out, "graph TD")
	// Dots in coordinates are not valid Mermaid IDs.
	assert.Contains(t, out, `0["0 <br/> home"]`)
	assert.Contains(t, out, `0_1[["0.1 <br/> echo"]]`)
	assert.Contains(t, out, `0 -- "1" --> 0_1`)
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaidOverlay(t *testing.T) {
	out := graph.GenerateMermaid(demoNodes(), &graph.Overlay{
		VisitedCoordinates: []string{"0", "0.1", "0"},
		CurrentCoordinate:  "0.1",
	})

	assert.Contains(t, out, "class 0 visited;")
	assert.Contains(t, out, "class 0_1 visited;")
	assert.Contains(t, out, "class 0_1 current;")
	// Repeated visits emit one style line.
	assert.Equal(t, 1, strings.Count(out, "class 0 visited;"))
}
