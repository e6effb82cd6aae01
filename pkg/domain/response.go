package domain

// ResponseKind classifies shell responses so hosts can render them.
type ResponseKind string

const (
	// ResponseMenu is a rendered menu (position prompt plus options).
	ResponseMenu ResponseKind = "menu"
	// ResponseResult is the outcome of an invocation or chain.
	ResponseResult ResponseKind = "result"
	// ResponseInfo is an informational message (shortcut saved, recording
	// started, ...).
	ResponseInfo ResponseKind = "info"
	// ResponseError is a structured error surfaced to the caller. Errors
	// never cross the command boundary as panics or raw errors; the host
	// renders them and the session continues.
	ResponseError ResponseKind = "error"
	// ResponseExit asks the host to terminate the session loop.
	ResponseExit ResponseKind = "exit"
)

// Response is what the shell returns for one dispatched command.
type Response struct {
	Kind ResponseKind `json:"kind"`

	// Content is display text, in markdown. Hosts may render it (glamour)
	// or print it raw.
	Content string `json:"content,omitempty"`

	// Data carries the structured result (step outputs, error payloads,
	// session snapshots) for machine-facing hosts.
	Data any `json:"data,omitempty"`

	// Position is the session position after the command.
	Position string `json:"position,omitempty"`
}
