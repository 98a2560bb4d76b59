// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/policy-engine/internal/tools"
)

// MCP names exposed alongside the tool list.
const (
	ServerName        = "policy-engine"
	HealthResourceURI = "health://status"
	ReviewPromptName  = "code_review_prompt"
)

// NewMCPServer registers every tool of inv on a new MCP server, plus the
// health resource and the code review prompt. Tool results carry the
// envelope both as JSON text and as structured content; IsError mirrors
// the envelope's ok flag.
func NewMCPServer(inv tools.Invoker, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)

	for _, spec := range inv.Specs() {
		server.AddTool(&mcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
		}, toolHandler(inv, spec.Name))
	}

	server.AddResource(&mcp.Resource{
		Name:     "health",
		URI:      HealthResourceURI,
		MIMEType: "text/plain",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     tools.HealthStatus,
		}}}, nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        ReviewPromptName,
		Description: "Ask for a correctness, security, and maintainability review of a code snippet.",
		Arguments:   []*mcp.PromptArgument{{Name: "code", Description: "Code to review.", Required: true}},
	}, func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: tools.CodeReviewPrompt(req.Params.Arguments["code"])},
		}}}, nil
	})

	return server
}

func toolHandler(inv tools.Invoker, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env, err := inv.Invoke(ctx, name, req.Params.Arguments)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}
		text, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("tool %s: encoding result: %w", name, err)
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
			StructuredContent: json.RawMessage(text),
			IsError:           !env.OK,
		}, nil
	}
}

// NewMCPHandler serves server over streamable HTTP. Sessions are stateless
// and responses are plain JSON so ordinary HTTP clients can call /mcp.
func NewMCPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true})
}
