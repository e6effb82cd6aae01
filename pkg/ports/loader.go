package ports

import "github.com/aretw0/lattice/pkg/domain"

// TreeLoader defines how the shell retrieves node definitions. The layered
// configuration system that assembles the tree lives behind this interface,
// decoupled from the core (Loam, FS, memory).
type TreeLoader interface {
	// GetNode retrieves a node by coordinate.
	GetNode(coordinate string) (*domain.Node, error)

	// ListNodes returns all coordinates available in the tree.
	// Used to build the resolver index and by introspection tools.
	ListNodes() ([]string, error)
}
