package runtime

import (
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// SystemFamily is the reserved family name for system operations.
const SystemFamily = "system"

// Resolver turns a user-typed token (shortcut alias, partial path, literal
// coordinate) into a canonical coordinate. It is a pure function over the
// current tree and the session's alias table.
type Resolver struct {
	tree *Tree

	// systemBase is the reserved base coordinate for "system.<rest>" tokens
	// when the tree does not declare a "system" family itself.
	systemBase string
}

// NewResolver creates a resolver over the given tree.
func NewResolver(tree *Tree, systemBase string) *Resolver {
	return &Resolver{tree: tree, systemBase: systemBase}
}

// Resolve maps a token to a candidate coordinate. Resolution order, first
// match wins:
//  1. exact alias match (jump aliases only; chain aliases expand elsewhere)
//  2. exact node-name match
//  3. family-prefix match ("files.list" -> "<files base>.list")
//  4. system-family special case ("system.<rest>")
//  5. suffix/substring search over all coordinates
//  6. the token unchanged, as a literal coordinate candidate
//
// Callers must verify the candidate resolves to an existing node and surface
// a ResolutionError carrying both token and candidate when it does not.
func (r *Resolver) Resolve(sess *domain.Session, token string) string {
	if sess != nil {
		if sc, ok := sess.Shortcut(token); ok && sc.Kind == domain.ShortcutJump {
			return sc.Target
		}
	}
	if coord, ok := r.tree.NameOf(token); ok {
		return coord
	}
	if i := strings.Index(token, "."); i > 0 {
		family := token[:i]
		if base, ok := r.tree.FamilyBase(family); ok {
			return base + token[i:]
		}
		if family == SystemFamily && r.systemBase != "" {
			return r.systemBase + token[i:]
		}
	}
	if coord, ok := r.search(token); ok {
		return coord
	}
	return token
}

// ResolveNode resolves a token and verifies the candidate exists.
func (r *Resolver) ResolveNode(sess *domain.Session, token string) (*domain.Node, error) {
	candidate := r.Resolve(sess, token)
	if node, ok := r.tree.Node(candidate); ok {
		return node, nil
	}
	return nil, &domain.ResolutionError{Token: token, Candidate: candidate}
}

// search scans all coordinates for a suffix match first, then a substring
// match, preferring the shortest hit for determinism.
func (r *Resolver) search(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	best := ""
	for _, coord := range r.tree.Coordinates() {
		if strings.HasSuffix(coord, "."+token) || coord == token {
			if best == "" || len(coord) < len(best) {
				best = coord
			}
		}
	}
	if best != "" {
		return best, true
	}
	for _, coord := range r.tree.Coordinates() {
		if strings.Contains(coord, token) {
			if best == "" || len(coord) < len(best) {
				best = coord
			}
		}
	}
	return best, best != ""
}
