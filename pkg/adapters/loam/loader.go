// Package loam adapts the Loam document repository to the lattice tree
// loader port. Each node is a markdown file whose YAML frontmatter carries
// the node metadata and whose body is the description.
package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/lattice/pkg/domain"
)

// Loader implements ports.TreeLoader over a Loam repository.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]

	mu    sync.Mutex
	index map[string]string // coordinate -> document ID
}

// New creates a Loam adapter from an existing typed repository.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tree path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree at %s: %w", absPath, err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo)), nil
}

// GetNode retrieves and converts a node by coordinate.
func (l *Loader) GetNode(coordinate string) (*domain.Node, error) {
	ctx := context.Background()

	idx, err := l.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}
	docID, ok := idx[coordinate]
	if !ok {
		// Fall back to the coordinate as a document ID; Loam resolves
		// "0.1" to "0.1.md" itself.
		docID = coordinate
	}

	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", coordinate, err)
	}
	return convertNode(doc.ID, doc.Data, doc.Content)
}

// ListNodes lists every node coordinate, detecting collisions.
func (l *Loader) ListNodes() ([]string, error) {
	ctx := context.Background()
	idx, err := l.buildIndex(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.index = idx
	l.mu.Unlock()

	coords := make([]string, 0, len(idx))
	for c := range idx {
		coords = append(coords, c)
	}
	return coords, nil
}

func (l *Loader) ensureIndex(ctx context.Context) (map[string]string, error) {
	l.mu.Lock()
	idx := l.index
	l.mu.Unlock()
	if idx != nil {
		return idx, nil
	}

	idx, err := l.buildIndex(ctx)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.index = idx
	l.mu.Unlock()
	return idx, nil
}

func (l *Loader) buildIndex(ctx context.Context) (map[string]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	idx := make(map[string]string, len(docs))
	for _, doc := range docs {
		coord := doc.Data.Coordinate
		if coord == "" {
			coord = coordinateFromID(doc.ID)
		}
		if existing, taken := idx[coord]; taken {
			return nil, fmt.Errorf("collision: coordinate %q is defined in both %q and %q", coord, existing, doc.ID)
		}
		idx[coord] = doc.ID
	}
	return idx, nil
}

// convertNode maps frontmatter metadata plus the markdown body to a node.
func convertNode(docID string, meta NodeMetadata, content string) (*domain.Node, error) {
	coord := meta.Coordinate
	if coord == "" {
		coord = coordinateFromID(docID)
	}

	kind := meta.Kind
	if kind == "" {
		if meta.Callable != "" {
			kind = domain.NodeKindCallable
		} else {
			kind = domain.NodeKindMenu
		}
	}
	switch kind {
	case domain.NodeKindMenu, domain.NodeKindCallable:
	default:
		return nil, fmt.Errorf("node %s: unknown kind %q", coord, kind)
	}
	if kind == domain.NodeKindCallable && meta.Callable == "" {
		return nil, fmt.Errorf("node %s: callable kind requires a callable key", coord)
	}

	node := &domain.Node{
		Coordinate:  coord,
		Name:        meta.Name,
		Kind:        kind,
		Prompt:      meta.Prompt,
		Description: strings.TrimSpace(content),
		Callable:    meta.Callable,
	}

	for i, opt := range meta.Options {
		key := opt.Key
		if key == "" {
			key = fmt.Sprintf("%d", i+1)
		}
		label := opt.Label
		if label == "" {
			label = opt.Text
		}
		if opt.Target == "" {
			return nil, fmt.Errorf("node %s: option %q has no target", coord, key)
		}
		node.Options = append(node.Options, domain.Option{
			Key:    key,
			Target: opt.Target,
			Label:  label,
		})
	}

	if len(meta.Args) > 0 {
		tmpl, err := argsValue(meta.Args)
		if err != nil {
			return nil, fmt.Errorf("node %s: invalid args template: %w", coord, err)
		}
		node.ArgsTemplate = tmpl
	}
	return node, nil
}

// argsValue lifts a decoded frontmatter map into the tagged value
// representation, classifying "$variable" strings as references. YAML
// decoding can yield map[any]any nesting, which mapstructure normalizes to
// string-keyed maps before the JSON round-trip.
func argsValue(args map[string]any) (*domain.Value, error) {
	normalized := make(map[string]any, len(args))
	if err := mapstructure.Decode(args, &normalized); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	v, err := domain.ParseValue(string(raw))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// coordinateFromID derives a coordinate from a document ID: extension
// trimmed, path separators as dots ("0/1.md" -> "0.1").
func coordinateFromID(id string) string {
	id = filepath.ToSlash(id)
	if ext := filepath.Ext(id); ext != "" {
		id = strings.TrimSuffix(id, ext)
	}
	return strings.ReplaceAll(id, "/", ".")
}
