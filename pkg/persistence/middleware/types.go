// Package middleware wraps session stores with cross-cutting persistence
// behavior: encryption at rest and redaction of sensitive variables.
package middleware

import "github.com/aretw0/lattice/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore
