// Package mcp exposes the shell as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/runner"
)

// DispatchResponse is the structured result of the dispatch_command tool.
type DispatchResponse struct {
	SessionID string           `json:"session_id" jsonschema_description:"Session identifier to reuse on the next call"`
	Response  *domain.Response `json:"response" jsonschema_description:"Structured shell response"`
	Position  string           `json:"position" jsonschema_description:"Coordinate the session is positioned at after the command"`
}

// Shell is the dispatch surface the MCP server hosts. Satisfied by
// lattice.Shell.
type Shell interface {
	NewSession() *domain.Session
	Dispatch(ctx context.Context, sess *domain.Session, input string) *domain.Response
	Nodes() []*domain.Node
}

// Server wraps a Shell and exposes it as an MCP server. Sessions live in
// the store so agents can hold long conversations across tool calls.
type Server struct {
	shell     Shell
	store     ports.SessionStore
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(shell Shell, store ports.SessionStore, version string) *Server {
	s := &Server{
		shell:     shell,
		store:     store,
		mcpServer: server.NewMCPServer("lattice-mcp", strings.TrimSpace(version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: dispatch_command
	dispatchTool := mcp.NewTool("dispatch_command",
		mcp.WithDescription("Execute one shell command line: a menu selection, 'jump <target>', a chain expression, or an alias. Omit session_id on the first call; reuse the returned session_id to keep position, variables and step results across calls."),
		mcp.WithString("command", mcp.Required(), mcp.Description("The command line to dispatch")),
		mcp.WithString("session_id", mcp.Description("Session identifier from a previous call (optional)")),
		mcp.WithOutputSchema[DispatchResponse](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	// TOOL: list_nodes
	s.mcpServer.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List every node in the coordinate tree, including crystallized pathways."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.shell.Nodes())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DispatchResponse, error) {
	command, _ := args["command"].(string)
	sessionID, _ := args["session_id"].(string)

	clean, err := runner.SanitizeInput(command)
	if err != nil {
		slog.Warn("MCP dispatch: input rejected", "error", err, "size", len(command))
		return DispatchResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	sess, sessionID, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return DispatchResponse{}, err
	}

	resp := s.shell.Dispatch(ctx, sess, clean)

	if err := s.store.Save(ctx, sessionID, sess); err != nil {
		slog.Error("MCP dispatch: session save failed", "session_id", sessionID, "error", err)
		return DispatchResponse{}, fmt.Errorf("failed to persist session: %w", err)
	}

	return DispatchResponse{
		SessionID: sessionID,
		Response:  resp,
		Position:  sess.Position,
	}, nil
}

func (s *Server) loadSession(ctx context.Context, sessionID string) (*domain.Session, string, error) {
	if sessionID == "" {
		return s.shell.NewSession(), newSessionID(), nil
	}
	sess, err := s.store.Load(ctx, sessionID)
	if err == domain.ErrSessionNotFound {
		// Unknown IDs start fresh under the requested name so agents can
		// pick their own identifiers.
		return s.shell.NewSession(), sessionID, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load session: %w", err)
	}
	return sess, sessionID, nil
}

func (s *Server) registerResources() {
	// EXPOSE: lattice://tree
	s.mcpServer.AddResource(mcp.NewResource("lattice://tree", "Coordinate Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.shell.Nodes())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tree: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "lattice://tree",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func newSessionID() string {
	return fmt.Sprintf("mcp-%d", time.Now().UnixNano())
}
