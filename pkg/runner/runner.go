// Package runner drives the interactive shell loop over an IO strategy,
// decoupling the command surface from terminals, pipes and structured hosts.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Runner handles the execution loop of a lattice shell using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs
// JSON) and an optional SessionStore for stop & resume.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over
	// Input/Output is used.
	Handler IOHandler

	// Logger is used for internal debug logging. If nil, logs are dropped.
	Logger *slog.Logger

	// Store is the persistence adapter. If nil, sessions are ephemeral.
	Store ports.SessionStore

	// Input/Output back the default TextHandler when Handler is nil.
	Input  io.Reader
	Output io.Writer

	// Renderer transforms markdown for the default TextHandler.
	Renderer ContentRenderer
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner() *Runner {
	return &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run executes the shell loop until exit or EOF. The session identified by
// sessionID is loaded from the store when present and saved after every
// command.
func (r *Runner) Run(ctx context.Context, shell Shell, sessionID string) error {
	handler := r.resolveHandler()
	manager := NewSessionManager(r.Store)

	sess, resumed, err := manager.LoadOrStart(ctx, shell, sessionID)
	if err != nil {
		return err
	}
	if resumed {
		if err := handler.SystemOutput(ctx, fmt.Sprintf("Resumed session %s at %s.", sessionID, sess.Position)); err != nil {
			return err
		}
	}

	// Show the menu at the starting position before the first prompt.
	if err := handler.Output(ctx, shell.Dispatch(ctx, sess, "")); err != nil {
		return fmt.Errorf("output error: %w", err)
	}

	for {
		input, err := handler.Input(ctx)
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		resp := shell.Dispatch(ctx, sess, input)

		if err := manager.Save(ctx, sessionID, sess); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
		r.Logger.Debug("command dispatched",
			"session_id", sessionID, "kind", resp.Kind, "position", resp.Position)

		if err := handler.Output(ctx, resp); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if resp.Kind == domain.ResponseExit {
			return nil
		}
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(r.Input, r.Output)
	th.Renderer = r.Renderer
	// Memoize to prevent creating new pumps on subsequent Run() calls.
	r.Handler = th
	return th
}
