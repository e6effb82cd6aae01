package domain

import (
	"fmt"
	"time"
)

// LastResultAlias resolves to the result of the most recent step.
const LastResultAlias = "last_result"

// HistoryEntry is one record in the append-only execution log.
type HistoryEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Coordinate string    `json:"coordinate"`
	Args       any       `json:"args,omitempty"`
	Result     any       `json:"result,omitempty"`
}

// RecordedCommand is one raw command captured during pathway recording.
type RecordedCommand struct {
	Raw      string    `json:"raw"`
	Position string    `json:"position"`
	At       time.Time `json:"at"`
}

// Session is the single mutable state of one shell instance. It is threaded
// explicitly through resolver, executor and invoker; there are no hidden
// globals. Mutations are never rolled back: a step's effects persist even if
// a later step of the same chain fails.
type Session struct {
	// Position is the current coordinate.
	Position string `json:"position"`

	// Stack is the ordered sequence of visited coordinates. It is never
	// empty; its top always equals Position.
	Stack []string `json:"stack"`

	// Variables holds user-defined named values.
	Variables map[string]any `json:"variables"`

	// StepResults maps "stepN_result" names to values, append-only, with N
	// strictly increasing per session.
	StepResults map[string]any `json:"step_results"`

	// StepCount is the monotonic step counter.
	StepCount int `json:"step_count"`

	// History is the append-only execution log.
	History []HistoryEntry `json:"history"`

	// Shortcuts is the per-session alias table. Names are unique.
	Shortcuts map[string]Shortcut `json:"shortcuts,omitempty"`

	// Recording indicates an active pathway recording.
	Recording bool `json:"recording,omitempty"`

	// PathwayBuffer holds the commands captured since recording began.
	PathwayBuffer []RecordedCommand `json:"pathway_buffer,omitempty"`
}

// NewSession creates a clean session positioned at the given root coordinate.
func NewSession(root string) *Session {
	return &Session{
		Position:    root,
		Stack:       []string{root},
		Variables:   make(map[string]any),
		StepResults: make(map[string]any),
		Shortcuts:   make(map[string]Shortcut),
	}
}

// Push navigates to a coordinate, recording it on the stack.
func (s *Session) Push(coordinate string) {
	s.Position = coordinate
	s.Stack = append(s.Stack, coordinate)
}

// Back pops the stack and restores the previous position. It reports false
// when already at the bottom of the stack.
func (s *Session) Back() (string, bool) {
	if len(s.Stack) <= 1 {
		return s.Position, false
	}
	s.Stack = s.Stack[:len(s.Stack)-1]
	s.Position = s.Stack[len(s.Stack)-1]
	return s.Position, true
}

// RecordStep appends a step result under the next "stepN_result" name and
// logs it to history. It returns the allocated result name.
func (s *Session) RecordStep(coordinate string, args, result any, at time.Time) string {
	s.StepCount++
	name := fmt.Sprintf("step%d_result", s.StepCount)
	if s.StepResults == nil {
		s.StepResults = make(map[string]any)
	}
	s.StepResults[name] = result
	s.History = append(s.History, HistoryEntry{
		Timestamp:  at,
		Coordinate: coordinate,
		Args:       args,
		Result:     result,
	})
	return name
}

// LastResult returns the most recent step result.
func (s *Session) LastResult() (any, bool) {
	if s.StepCount == 0 {
		return nil, false
	}
	v, ok := s.StepResults[fmt.Sprintf("step%d_result", s.StepCount)]
	return v, ok
}

// Lookup resolves a variable name for substitution: session variables first,
// then step results, with "last_result" aliasing the most recent step.
func (s *Session) Lookup(name string) (any, bool) {
	if v, ok := s.Variables[name]; ok {
		return v, true
	}
	if name == LastResultAlias {
		return s.LastResult()
	}
	if v, ok := s.StepResults[name]; ok {
		return v, true
	}
	return nil, false
}

// SetShortcut installs an alias. The caller is responsible for cycle checks.
func (s *Session) SetShortcut(sc Shortcut) {
	if s.Shortcuts == nil {
		s.Shortcuts = make(map[string]Shortcut)
	}
	s.Shortcuts[sc.Name] = sc
}

// Shortcut looks up an alias by name.
func (s *Session) Shortcut(name string) (Shortcut, bool) {
	sc, ok := s.Shortcuts[name]
	return sc, ok
}

// Clone returns a deep-enough copy for safe persistence: maps and slices are
// copied, values are shared.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Stack = append([]string(nil), s.Stack...)
	next.Variables = make(map[string]any, len(s.Variables))
	for k, v := range s.Variables {
		next.Variables[k] = v
	}
	next.StepResults = make(map[string]any, len(s.StepResults))
	for k, v := range s.StepResults {
		next.StepResults[k] = v
	}
	next.History = append([]HistoryEntry(nil), s.History...)
	next.Shortcuts = make(map[string]Shortcut, len(s.Shortcuts))
	for k, v := range s.Shortcuts {
		next.Shortcuts[k] = v
	}
	next.PathwayBuffer = append([]RecordedCommand(nil), s.PathwayBuffer...)
	return &next
}
