package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"golang.org/x/term"
)

// TextHandler implements the standard text-based interface: markdown
// responses rendered to the terminal, one prompt per command.
type TextHandler struct {
	source      io.Reader
	interactive bool
	Reader      *bufio.Reader
	Writer      io.Writer
	Renderer    ContentRenderer

	// Prompt is printed before each read. The %s verb receives the current
	// position.
	Prompt string

	position string

	inputChan chan inputResult
	startOnce sync.Once
}

// ContentRenderer transforms markdown before it is written. This allows TUI
// rendering (markdown to ANSI) without coupling the runner to a renderer.
type ContentRenderer func(string) (string, error)

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerPrompt overrides the prompt format.
func WithTextHandlerPrompt(format string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = format
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		source: r,
		Writer: w,
		Prompt: "[%s]> ",
	}
	if f, ok := r.(*os.File); ok {
		h.interactive = term.IsTerminal(int(f.Fd()))
	}
	h.Reader = bufio.NewReader(h.source)

	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in a dedicated goroutine so Input can respect context
// cancellation while a read is pending.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err == io.EOF {
				if h.interactive {
					// On an interactive terminal EOF usually means a signal
					// interrupted the read; keep the pump alive for reads
					// after the signal is handled.
					h.inputChan <- inputResult{err: io.EOF}
					time.Sleep(50 * time.Millisecond)
					continue
				}
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Output writes the response content, rendered when a renderer is set, and
// tracks the position for the prompt.
func (h *TextHandler) Output(ctx context.Context, resp *domain.Response) error {
	if resp == nil {
		return nil
	}
	if resp.Position != "" {
		h.position = resp.Position
	}
	if resp.Content == "" {
		return nil
	}
	output := resp.Content
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimRight(output, "\n"))
	return err
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprintf(h.Writer, h.Prompt, h.position)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return err
}
