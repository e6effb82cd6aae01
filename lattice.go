package lattice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/metrics"
	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/internal/runtime"
	loamAdapter "github.com/aretw0/lattice/pkg/adapters/loam"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
)

// Version is the library version reported by hosts.
var Version = "0.1.0"

// Shell is the high-level entry point for the Lattice library. It wraps the
// internal runtime and provides a simplified API for consumers: create
// sessions, dispatch command lines, inspect the tree.
type Shell struct {
	engine   *runtime.Engine
	loader   ports.TreeLoader
	registry *registry.Registry
	logger   *slog.Logger

	runtimeOpts []runtime.Option
	promReg     prometheus.Registerer

	// Name labels the shell (defaults to the tree directory base name).
	Name string
}

// Option defines a functional option for configuring the Shell.
type Option func(*Shell)

// WithLoader injects a custom TreeLoader, bypassing the default Loam
// initialization.
func WithLoader(l ports.TreeLoader) Option {
	return func(s *Shell) {
		s.loader = l
	}
}

// WithLogger sets a custom structured logger for the shell.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithRegistry injects a pre-populated callable registry. Builtins are
// still installed on it.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Shell) {
		s.registry = reg
	}
}

// WithMetrics registers Prometheus collectors on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Shell) {
		s.promReg = reg
	}
}

// WithRoot configures the starting coordinate for new sessions.
func WithRoot(coordinate string) Option {
	return func(s *Shell) {
		s.runtimeOpts = append(s.runtimeOpts, runtime.WithRoot(coordinate))
	}
}

// WithSystemBase configures the base coordinate backing "system.<rest>"
// tokens.
func WithSystemBase(coordinate string) Option {
	return func(s *Shell) {
		s.runtimeOpts = append(s.runtimeOpts, runtime.WithSystemBase(coordinate))
	}
}

// WithMaxLoopIterations overrides the while-loop iteration guard.
func WithMaxLoopIterations(n int) Option {
	return func(s *Shell) {
		s.runtimeOpts = append(s.runtimeOpts, runtime.WithMaxLoopIterations(n))
	}
}

// New initializes a new Lattice Shell.
// By default, it loads the tree from a Loam repository at the given path.
// If WithLoader is provided, treePath can be empty and Loam is skipped.
func New(treePath string, opts ...Option) (*Shell, error) {
	s := &Shell{}
	for _, opt := range opts {
		opt(s)
	}

	if s.loader == nil {
		if treePath == "" {
			return nil, fmt.Errorf("treePath is required when no custom loader is provided")
		}
		loader, err := loamAdapter.Open(treePath)
		if err != nil {
			return nil, err
		}
		s.loader = loader
	}
	if treePath != "" {
		abs, err := filepath.Abs(treePath)
		if err == nil {
			s.Name = filepath.Base(abs)
		}
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.Name != "" {
		s.logger = s.logger.With("tree", s.Name)
	}

	if s.registry == nil {
		s.registry = registry.New()
	}
	registry.RegisterBuiltins(s.registry)

	runtimeOpts := []runtime.Option{runtime.WithLogger(s.logger)}
	if s.promReg != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithMetrics(metrics.New(s.promReg)))
	}
	runtimeOpts = append(runtimeOpts, s.runtimeOpts...)

	engine, err := runtime.NewEngine(s.loader, s.registry, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// NewSession creates a session positioned at the root coordinate.
func (s *Shell) NewSession() *domain.Session {
	return s.engine.NewSession()
}

// Dispatch executes one command line against the session and returns the
// structured response. It never panics and never returns a raw error; the
// session stays usable after failures.
func (s *Shell) Dispatch(ctx context.Context, sess *domain.Session, input string) *domain.Response {
	return s.engine.Dispatch(ctx, sess, input)
}

// Registry returns the callable registry for registering host operations.
func (s *Shell) Registry() *registry.Registry {
	return s.registry
}

// Nodes returns the full tree, including crystallized pathway nodes, for
// introspection and visualization tools.
func (s *Shell) Nodes() []*domain.Node {
	return s.engine.Nodes()
}

// Mermaid renders the tree as a Mermaid flowchart. sess may be nil; when
// given, its visited and current coordinates are highlighted.
func (s *Shell) Mermaid(sess *domain.Session) string {
	var overlay *graph.Overlay
	if sess != nil {
		overlay = &graph.Overlay{
			VisitedCoordinates: sess.Stack,
			CurrentCoordinate:  sess.Position,
		}
	}
	return graph.GenerateMermaid(s.engine.Nodes(), overlay)
}

// Loader returns the underlying TreeLoader used by the shell.
func (s *Shell) Loader() ports.TreeLoader {
	return s.loader
}
