// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools holds the callable tool catalogue and the invokers that
// dispatch to it. Every tool takes a JSON object as input and returns a
// [types.Envelope]; transports and the CLI reach tools only through the
// [Invoker] interface.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// ErrUnknownTool is returned by Invoke when no tool has the requested name.
var ErrUnknownTool = errors.New("unknown tool")

// Handler runs one tool. Expected failures (bad input, upstream errors) are
// reported in the envelope; a non-nil error means the handler itself broke.
type Handler func(ctx context.Context, input json.RawMessage) (types.Envelope, error)

// Spec is the discoverable description of a tool.
type Spec struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	InputSchema map[string]any `json:"inputSchema" yaml:"input_schema"`
}

// Tool pairs a Spec with its Handler.
type Tool struct {
	Spec
	Handler Handler
}

// Invoker dispatches tool calls by name.
type Invoker interface {
	Invoke(ctx context.Context, name string, input json.RawMessage) (types.Envelope, error)
	Specs() []Spec
}

// Registry is the bare Invoker: a fixed name-to-tool map built once at
// startup.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry validates tools and returns a Registry over them. Names must
// be unique and non-empty, every tool needs a handler, and every input
// schema must describe an object.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Name == "" {
			return nil, errors.New("tool with empty name")
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %s: nil handler", t.Name)
		}
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("tool %s: registered twice", t.Name)
		}
		if t.InputSchema == nil || t.InputSchema["type"] != "object" {
			return nil, fmt.Errorf("tool %s: input schema must be an object", t.Name)
		}
		r.tools[t.Name] = t
	}
	return r, nil
}

// Invoke runs the named tool. An unknown name yields a NOT_FOUND envelope
// together with ErrUnknownTool.
func (r *Registry) Invoke(ctx context.Context, name string, input json.RawMessage) (types.Envelope, error) {
	t, ok := r.tools[name]
	if !ok {
		env := types.Failure(types.NewError(types.CodeNotFound, "Unknown tool: %s", name), types.NewMeta(time.Now()))
		return env, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Handler(ctx, input)
}

// Specs returns every tool description sorted by name.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// typed adapts a function over a decoded input struct into a Handler.
// Missing or null input decodes as an empty object; input that does not
// decode into In fails with BAD_INPUT.
func typed[In any](fn func(ctx context.Context, in In) types.Envelope) Handler {
	return func(ctx context.Context, raw json.RawMessage) (types.Envelope, error) {
		start := time.Now()
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			trimmed = []byte("{}")
		}
		var in In
		if err := json.Unmarshal(trimmed, &in); err != nil {
			return types.Failure(types.NewError(types.CodeBadInput, "invalid input: %v", err), types.NewMeta(start)), nil
		}
		return fn(ctx, in), nil
	}
}

// Schema helpers. Input schemas are plain JSON Schema documents.

func object(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func integer(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func number(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func array(items map[string]any, desc string) map[string]any {
	return map[string]any{"type": "array", "items": items, "description": desc}
}
