package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/krishg0kul/genai-multi-agent/agent"
	"github.com/krishg0kul/genai-multi-agent/agent/mcp"
	"github.com/krishg0kul/genai-multi-agent/agent/terminal"
	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/krishg0kul/genai-multi-agent/server"
	"github.com/spf13/cobra"
)

// withApp loads the configuration, builds the app, runs fn and releases the
// app afterwards.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}
				return server.New(a.chat, server.WithMetrics(a.metrics)).ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr, or :$PORT)")
	return cmd
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				res, err := a.chat.Handle(ctx, flags.userID, strings.Join(args, " "))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				fmt.Fprintf(out, "Agents: %s\n", joinIDs(res.Agents))
				fmt.Fprintf(out, "Reasoning: %s\n\n", res.Reasoning)
				fmt.Fprintln(out, res.Text())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	var showRouting bool
	cmd := &cobra.Command{
		Use:   "chat [question...]",
		Short: "Start an interactive helpdesk session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Helpdesk is ready. Ask a question, /clear to forget the conversation, /quit to leave.")
				term := terminal.New(a.chat, flags.userID,
					terminal.WithIO(cmd.InOrStdin(), out),
					terminal.WithRouting(showRouting))
				if err := term.Run(ctx, strings.Join(args, " ")); err != nil {
					return errors.Wrapf(err, "terminal session stopped")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showRouting, "show-routing", false, "Print the answering agents and routing reasoning")
	return cmd
}

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the helpdesk as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				return mcp.Run(ctx, a.chat, version)
			})
		},
	}
}

func newMemoryCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear a user's conversation memory",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the recorded conversation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, flags, func(ctx context.Context, a *app) error {
					entries, err := a.chat.History(ctx, flags.userID)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					if len(entries) == 0 {
						fmt.Fprintln(out, "No conversation history.")
						return nil
					}
					for _, e := range entries {
						fmt.Fprintf(out, "[%s] %s: %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Role, e.Content)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the recorded conversation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, flags, func(ctx context.Context, a *app) error {
					removed, err := a.chat.Clear(ctx, flags.userID)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintln(cmd.OutOrStdout(), "Conversation history cleared.")
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "No conversation history to clear.")
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func newIndexCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "index [agent...]",
		Short: "Build the knowledge indexes ahead of the first question",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				want := make(map[string]bool, len(args))
				for _, arg := range args {
					id := strings.ToUpper(arg)
					if _, ok := a.cfg.GetDomain(id); !ok {
						return errors.New("unknown domain agent %q", arg)
					}
					want[id] = true
				}
				for _, d := range a.cfg.Domains {
					if len(want) > 0 && !want[d.ID] {
						continue
					}
					n, err := a.index.Build(ctx, d.Collection)
					if err != nil {
						return errors.Wrapf(err, "failed to index %s", d.ID)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks\n", d.ID, n)
				}
				return nil
			})
		},
	}
}

func joinIDs(ids []agent.ID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}
