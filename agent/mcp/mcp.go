// Package mcp serves the helpdesk as a Model Context Protocol tool so that
// MCP clients such as IDE assistants can ask it questions over stdio.
package mcp

import (
	"context"

	"github.com/krishg0kul/genai-multi-agent/agent"
	"github.com/krishg0kul/genai-multi-agent/errors"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ToolName is the name of the single tool the server exposes.
const ToolName = "ask"

// Asker answers one question for a user. chat.Service implements it.
type Asker interface {
	Handle(ctx context.Context, userID, message string) (agent.FinalResult, error)
}

// AskArgs are the arguments of the ask tool.
type AskArgs struct {
	Question string `json:"question"`
	UserID   string `json:"userId,omitempty"`
}

// NewServer builds an MCP server exposing the ask tool backed by svc.
func NewServer(svc Asker, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "helpdesk", Version: version}, nil)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolName,
		Description: "Ask the company helpdesk a question. IT, HR and finance questions are answered from internal knowledge; anything else is answered with a web search.",
	}, askHandler(svc))
	return server
}

// Run serves MCP over stdin/stdout until ctx is cancelled or the client
// disconnects.
func Run(ctx context.Context, svc Asker, version string) error {
	log.Info().Msg("starting MCP server on stdio")
	if err := NewServer(svc, version).Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return errors.Wrapf(err, "MCP server stopped")
	}
	return nil
}

func askHandler(svc Asker) mcpsdk.ToolHandlerFor[AskArgs, any] {
	return func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[AskArgs]) (*mcpsdk.CallToolResultFor[any], error) {
		res, err := svc.Handle(ctx, params.Arguments.UserID, params.Arguments.Question)
		if err != nil {
			// Tool failures are reported in the result so the client model can see them.
			return &mcpsdk.CallToolResultFor[any]{
				IsError: true,
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
			}, nil
		}
		return &mcpsdk.CallToolResultFor[any]{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: res.Text()}},
		}, nil
	}
}
