package runner

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents one shell response to the user.
	Output(ctx context.Context, resp *domain.Response) error

	// Input reads the next command line from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (status updates, warnings),
	// distinct from shell responses.
	SystemOutput(ctx context.Context, msg string) error
}

// Shell is the dispatch surface the runner drives. Satisfied by
// lattice.Shell.
type Shell interface {
	NewSession() *domain.Session
	Dispatch(ctx context.Context, sess *domain.Session, input string) *domain.Response
}
