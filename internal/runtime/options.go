package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/lattice/internal/metrics"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus instrumentation. Defaults to none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxLoopIterations overrides the while-loop iteration guard.
func WithMaxLoopIterations(n int) Option {
	return func(e *Engine) { e.maxLoop = n }
}

// WithSystemBase sets the base coordinate backing "system.<rest>" tokens
// when the tree declares no "system" family of its own.
func WithSystemBase(coordinate string) Option {
	return func(e *Engine) { e.systemBase = coordinate }
}

// WithRoot sets the starting coordinate for new sessions. Defaults to "0"
// when present, otherwise the first coordinate in the tree.
func WithRoot(coordinate string) Option {
	return func(e *Engine) { e.root = coordinate }
}

// WithClock overrides the engine clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
