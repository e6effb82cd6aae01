package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in a store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotCallable is returned when a non-callable node is invoked.
var ErrNotCallable = errors.New("node is not callable")

// ParseError is a chain syntax error. It is raised before any execution;
// session state is never mutated by a command that fails to parse.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg)
}

// ResolutionError is an unknown coordinate or alias. It carries both the
// original token and the resolved candidate for debuggability.
type ResolutionError struct {
	Token     string
	Candidate string
}

func (e *ResolutionError) Error() string {
	if e.Candidate != "" && e.Candidate != e.Token {
		return fmt.Sprintf("not found: %q (resolved to %q)", e.Token, e.Candidate)
	}
	return fmt.Sprintf("not found: %q", e.Token)
}

// AliasCycleError is returned when a shortcut definition would reference
// itself, directly or transitively.
type AliasCycleError struct {
	Name string
	Via  string
}

func (e *AliasCycleError) Error() string {
	if e.Via != "" && e.Via != e.Name {
		return fmt.Sprintf("shortcut %q references itself via %q", e.Name, e.Via)
	}
	return fmt.Sprintf("shortcut %q references itself", e.Name)
}

// ErrorResult converts a callable failure into the structured payload that
// is recorded like any other step result. Chains continue past it unless
// explicitly gated by "or" or "if".
func ErrorResult(target string, args any, err error) map[string]any {
	kind := "error"
	var resErr *ResolutionError
	var parseErr *ParseError
	switch {
	case errors.As(err, &resErr):
		kind = "resolution_error"
	case errors.As(err, &parseErr):
		kind = "parse_error"
	case errors.Is(err, ErrNotCallable):
		kind = "not_callable"
	}
	return map[string]any{
		"error":          err.Error(),
		"exception_kind": kind,
		"target":         target,
		"args":           args,
	}
}

// IsErrorResult reports whether a step result is a structured error payload.
func IsErrorResult(result any) bool {
	m, ok := result.(map[string]any)
	if !ok {
		return false
	}
	_, hasErr := m["error"]
	_, hasKind := m["exception_kind"]
	return hasErr && hasKind
}
