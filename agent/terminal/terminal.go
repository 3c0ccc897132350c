package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/krishg0kul/genai-multi-agent/agent"
	"github.com/krishg0kul/genai-multi-agent/memory"
)

// Chatter is the part of chat.Service the terminal drives.
type Chatter interface {
	Handle(ctx context.Context, userID, message string) (agent.FinalResult, error)
	History(ctx context.Context, userID string) ([]memory.Entry, error)
	Clear(ctx context.Context, userID string) (bool, error)
}

// Terminal handles the terminal/CLI interaction mode
type Terminal struct {
	chat        Chatter
	userID      string
	in          io.Reader
	out         io.Writer
	showRouting bool
}

type Option func(*Terminal)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(t *Terminal) {
		t.in = in
		t.out = out
	}
}

// WithRouting prints the answering agents and the routing reasoning.
func WithRouting(show bool) Option {
	return func(t *Terminal) { t.showRouting = show }
}

// New creates a new Terminal instance for userID.
func New(svc Chatter, userID string, opts ...Option) *Terminal {
	t := &Terminal{
		chat:   svc,
		userID: userID,
		in:     os.Stdin,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run starts the interactive terminal session
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	// If there's an initial prompt from the command line, use it first
	if initialPrompt != "" {
		if err := t.processTurn(ctx, initialPrompt); err != nil {
			fmt.Fprintf(t.out, "Error: %v\n", err)
		}
	}

	scanner := bufio.NewScanner(t.in)
	for {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprint(t.out, "You: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			fmt.Fprintln(t.out)
			break
		}

		userInput := strings.TrimSpace(scanner.Text())
		if userInput == "" {
			continue
		}

		switch userInput {
		case "/quit", "/exit":
			return nil
		case "/clear":
			t.clear(ctx)
			continue
		case "/history":
			t.printHistory(ctx)
			continue
		}

		if err := t.processTurn(ctx, userInput); err != nil {
			fmt.Fprintf(t.out, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

// processTurn handles a single user input turn
func (t *Terminal) processTurn(ctx context.Context, userInput string) error {
	res, err := t.chat.Handle(ctx, t.userID, userInput)
	if err != nil {
		return err
	}

	if t.showRouting {
		fmt.Fprintf(t.out, "[%s] %s\n", joinIDs(res.Agents), res.Reasoning)
	}
	fmt.Fprintf(t.out, "Assistant: %s\n", answer(res))
	return nil
}

func (t *Terminal) clear(ctx context.Context) {
	removed, err := t.chat.Clear(ctx, t.userID)
	switch {
	case err != nil:
		fmt.Fprintf(t.out, "Error: %v\n", err)
	case removed:
		fmt.Fprintln(t.out, "Conversation history cleared.")
	default:
		fmt.Fprintln(t.out, "No conversation history to clear.")
	}
}

func (t *Terminal) printHistory(ctx context.Context) {
	entries, err := t.chat.History(ctx, t.userID)
	if err != nil {
		fmt.Fprintf(t.out, "Error: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(t.out, "No conversation history.")
		return
	}
	for _, e := range entries {
		who := "Assistant"
		if e.IsUser() {
			who = "You"
		}
		fmt.Fprintf(t.out, "%s: %s\n", who, e.Content)
	}
}

// answer prefers the summary and falls back to the per-agent responses.
func answer(res agent.FinalResult) string {
	if s := strings.TrimSpace(res.ResponseSummary); s != "" {
		return s
	}
	var parts []string
	for _, id := range res.Agents {
		if r := strings.TrimSpace(res.Responses[id]); r != "" {
			parts = append(parts, fmt.Sprintf("[%s] %s", id, r))
		}
	}
	if len(parts) == 0 {
		return "(no answer)"
	}
	return strings.Join(parts, "\n")
}

func joinIDs(ids []agent.ID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}
