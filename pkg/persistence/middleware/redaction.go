package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

const redactedPlaceholder = "***"

type redactionMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks session variables
// and step results whose names match the patterns before they reach the
// underlying store. The in-memory session is untouched; only the persisted
// copy is masked.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	cloned := sess.Clone()
	cloned.Variables = maskMap(cloned.Variables, m.patterns)
	cloned.StepResults = maskMap(cloned.StepResults, m.patterns)
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskMap replaces matching keys and recurses into nested maps. It returns a
// fresh map so shared values in the original session stay intact.
func maskMap(in map[string]any, patterns []*regexp.Regexp) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if matchesAny(k, patterns) {
			out[k] = redactedPlaceholder
			continue
		}
		if subMap, ok := v.(map[string]any); ok {
			out[k] = maskMap(subMap, patterns)
		} else {
			out[k] = v
		}
	}
	return out
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
