// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// Discovery lists the tools a caller can invoke.
type Discovery interface {
	ListTools(ctx context.Context) ([]Spec, error)
}

// LocalRegistry lists the tools of an in-process Invoker.
type LocalRegistry struct {
	Invoker Invoker
}

// ListTools returns the invoker's specs.
func (l LocalRegistry) ListTools(context.Context) ([]Spec, error) {
	return l.Invoker.Specs(), nil
}

// RemoteDiscovery lists the tools of an MCP server over streamable HTTP.
type RemoteDiscovery struct {
	// URL is the MCP endpoint, e.g. http://127.0.0.1:8000/mcp.
	URL        string
	HTTPClient *http.Client

	// Transport replaces the streamable HTTP transport when set.
	Transport mcp.Transport
}

// ListTools connects, pages through the server's tool list, and
// disconnects.
func (r *RemoteDiscovery) ListTools(ctx context.Context) ([]Spec, error) {
	transport := r.Transport
	if transport == nil {
		if r.URL == "" {
			return nil, fmt.Errorf("remote discovery: no MCP URL configured")
		}
		transport = &mcp.StreamableClientTransport{Endpoint: r.URL, HTTPClient: r.HTTPClient}
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "policy-engine-discovery", Version: "v0.1.0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", r.URL, err)
	}
	defer session.Close()

	var specs []Spec
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools: %w", err)
		}
		schema, err := schemaMap(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool.Name, err)
		}
		specs = append(specs, Spec{Name: tool.Name, Description: tool.Description, InputSchema: schema})
	}
	return specs, nil
}

// schemaMap normalizes an input schema of any shape to a JSON object map.
func schemaMap(schema any) (map[string]any, error) {
	if schema == nil {
		return nil, nil
	}
	if m, ok := schema.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encoding input schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding input schema: %w", err)
	}
	return m, nil
}

// NewDiscovery selects local or remote discovery from cfg. Local mode lists
// inv.
func NewDiscovery(cfg types.DiscoveryConfig, inv Invoker) (Discovery, error) {
	switch cfg.Mode {
	case "", types.DiscoveryLocal:
		return LocalRegistry{Invoker: inv}, nil
	case types.DiscoveryRemote:
		return &RemoteDiscovery{URL: cfg.URL}, nil
	}
	return nil, fmt.Errorf("unknown discovery mode %q", cfg.Mode)
}
