// Package graph renders the coordinate tree as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Overlay contains session state to visualize on the graph.
type Overlay struct {
	VisitedCoordinates []string
	CurrentCoordinate  string
}

// GenerateMermaid produces Mermaid flowchart syntax from the node list.
// Menu nodes render as rectangles, callables as subroutines; option edges
// are labeled with their selection key. Overlay styles mark the session's
// visited and current coordinates.
func GenerateMermaid(nodes []*domain.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.Coordinate)

		opener, closer := "[", "]"
		if node.IsCallable() {
			opener, closer = "[[", "]]"
		}

		label := node.Coordinate
		if node.Name != "" {
			label = fmt.Sprintf("%s <br/> %s", node.Coordinate, node.Name)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, opt := range node.Options {
			safeTo := sanitizeMermaidID(opt.Target)
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, opt.Key, safeTo))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, coord := range overlay.VisitedCoordinates {
			safeID := sanitizeMermaidID(coord)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.CurrentCoordinate != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentCoordinate)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
