package runtime

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Tree indexes the coordinate tree for resolution: coordinates, logical
// names and family bases. It layers a mutable overlay on top of the loader
// so crystallized pathway nodes can be added without touching the source.
type Tree struct {
	loader ports.TreeLoader

	mu       sync.RWMutex
	overlay  map[string]*domain.Node
	byCoord  map[string]*domain.Node
	byName   map[string]string // logical name -> coordinate
	families map[string]string // family name -> base coordinate
	coords   []string
}

// NewTree builds the index by loading every node once.
func NewTree(loader ports.TreeLoader) (*Tree, error) {
	t := &Tree{
		loader:   loader,
		overlay:  make(map[string]*domain.Node),
		byCoord:  make(map[string]*domain.Node),
		byName:   make(map[string]string),
		families: make(map[string]string),
	}
	coords, err := loader.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	sort.Strings(coords)
	for _, coord := range coords {
		node, err := loader.GetNode(coord)
		if err != nil {
			return nil, fmt.Errorf("failed to load node %s: %w", coord, err)
		}
		t.indexNode(node)
	}
	return t, nil
}

func (t *Tree) indexNode(node *domain.Node) {
	t.byCoord[node.Coordinate] = node
	t.coords = append(t.coords, node.Coordinate)
	if node.Name != "" {
		if _, taken := t.byName[node.Name]; !taken {
			t.byName[node.Name] = node.Coordinate
		}
		// Named menu nodes act as family bases for prefix resolution.
		if node.Kind == domain.NodeKindMenu {
			t.families[node.Name] = node.Coordinate
		}
	}
}

// Node retrieves a node by exact coordinate, overlay first.
func (t *Tree) Node(coordinate string) (*domain.Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n, ok := t.overlay[coordinate]; ok {
		return n, true
	}
	n, ok := t.byCoord[coordinate]
	return n, ok
}

// Coordinates returns every known coordinate, sorted.
func (t *Tree) Coordinates() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := append([]string(nil), t.coords...)
	sort.Strings(out)
	return out
}

// NameOf resolves a logical name to its coordinate.
func (t *Tree) NameOf(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byName[name]
	return c, ok
}

// FamilyBase resolves a family name to its base coordinate.
func (t *Tree) FamilyBase(family string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.families[family]
	return c, ok
}

// FamilyOf returns the base coordinate of the family containing the given
// coordinate, or the root of its dotted path when no named family matches.
func (t *Tree) FamilyOf(coordinate string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	best := ""
	for _, base := range t.families {
		if coordinate == base || strings.HasPrefix(coordinate, base+".") {
			if len(base) > len(best) {
				best = base
			}
		}
	}
	if best != "" {
		return best
	}
	if i := strings.Index(coordinate, "."); i >= 0 {
		return coordinate[:i]
	}
	return coordinate
}

// NextChild allocates the next available integer child coordinate under the
// given base.
func (t *Tree) NextChild(base string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	max := 0
	prefix := base + "."
	consider := func(coord string) {
		if !strings.HasPrefix(coord, prefix) {
			return
		}
		rest := coord[len(prefix):]
		if strings.Contains(rest, ".") {
			return
		}
		n := 0
		for _, r := range rest {
			if r < '0' || r > '9' {
				return
			}
			n = n*10 + int(r-'0')
		}
		if n > max {
			max = n
		}
	}
	for _, coord := range t.coords {
		consider(coord)
	}
	for coord := range t.overlay {
		consider(coord)
	}
	return fmt.Sprintf("%s.%d", base, max+1)
}

// AddNode inserts a node into the overlay. Used for crystallized pathway
// templates; the node is immutable thereafter.
func (t *Tree) AddNode(node *domain.Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byCoord[node.Coordinate]; exists {
		return fmt.Errorf("coordinate %s already exists", node.Coordinate)
	}
	if _, exists := t.overlay[node.Coordinate]; exists {
		return fmt.Errorf("coordinate %s already exists", node.Coordinate)
	}
	t.overlay[node.Coordinate] = node
	t.coords = append(t.coords, node.Coordinate)
	if node.Name != "" {
		if _, taken := t.byName[node.Name]; !taken {
			t.byName[node.Name] = node.Coordinate
		}
	}
	return nil
}

// Nodes returns every node, sorted by coordinate. Used by introspection and
// visualization tools.
func (t *Tree) Nodes() []*domain.Node {
	coords := t.Coordinates()
	out := make([]*domain.Node, 0, len(coords))
	for _, c := range coords {
		if n, ok := t.Node(c); ok {
			out = append(out, n)
		}
	}
	return out
}
