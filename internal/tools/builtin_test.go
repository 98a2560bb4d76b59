// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/policy-engine/pkg/types"
)

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Builtins()...)
	require.NoError(t, err)
	return r
}

func invoke(t *testing.T, inv Invoker, name, input string) types.Envelope {
	t.Helper()
	env, err := inv.Invoke(context.Background(), name, json.RawMessage(input))
	require.NoError(t, err)
	assert.NotEmpty(t, env.Meta.RequestID)
	return env
}

func TestAdd(t *testing.T) {
	r := builtinRegistry(t)

	env := invoke(t, r, "add", `{"a": 2, "b": 3}`)
	require.True(t, env.OK)
	assert.Equal(t, map[string]float64{"sum": 5}, env.Data)

	env = invoke(t, r, "add", `{"a": 2}`)
	assert.False(t, env.OK)
	assert.Equal(t, types.CodeBadInput, env.Error.Code)

	env = invoke(t, r, "add", `{"a": "two", "b": 3}`)
	assert.Equal(t, types.CodeBadInput, env.Error.Code)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  ada   lovelace ", "Ada Lovelace"},
		{"GRACE HOPPER", "Grace Hopper"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}

	env := invoke(t, builtinRegistry(t), "normalize_name", `{"name":"  alan  turing"}`)
	require.True(t, env.OK)
	assert.Equal(t, map[string]string{"normalized": "Alan Turing"}, env.Data)
}

func TestEcho(t *testing.T) {
	env := invoke(t, builtinRegistry(t), "echo", `{"input_value": {"k": [1, "two"]}}`)
	require.True(t, env.OK)
	data := env.Data.(map[string]any)
	assert.Equal(t, map[string]any{"k": []any{float64(1), "two"}}, data["echoed"])
	assert.Equal(t, EchoMessage, data["message"])
}

func TestHealthAndPrompt(t *testing.T) {
	r := builtinRegistry(t)

	env := invoke(t, r, "health", "")
	require.True(t, env.OK)
	assert.Equal(t, map[string]string{"status": "ok"}, env.Data)

	env = invoke(t, r, "code_review_prompt", `{"code":"x := 1"}`)
	require.True(t, env.OK)
	assert.Equal(t, map[string]string{
		"prompt": "Review the code for correctness, security, and maintainability.\n\nCODE:\nx := 1\n",
	}, env.Data)
}
