// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// EchoMessage accompanies every echo result.
const EchoMessage = "echo tool received input"

// HealthStatus is the liveness value reported by the health tool and resource.
const HealthStatus = "ok"

// CodeReviewPrompt renders the code review prompt template for code.
func CodeReviewPrompt(code string) string {
	return "Review the code for correctness, security, and maintainability.\n\nCODE:\n" + code + "\n"
}

// NormalizeName trims name, collapses inner whitespace, and title-cases
// each word.
func NormalizeName(name string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(name), " "))
}

type addInput struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
}

type nameInput struct {
	Name string `json:"name"`
}

type echoInput struct {
	InputValue any `json:"input_value"`
}

type codeInput struct {
	Code string `json:"code"`
}

// Builtins returns the compute-only tools. None of them touch the network.
func Builtins() []Tool {
	return []Tool{
		{
			Spec: Spec{
				Name:        "add",
				Description: "Add two numbers.",
				InputSchema: object(map[string]any{
					"a": number("first addend"),
					"b": number("second addend"),
				}, "a", "b"),
			},
			Handler: typed(func(_ context.Context, in addInput) types.Envelope {
				start := time.Now()
				if in.A == nil || in.B == nil {
					return types.Failure(types.NewError(types.CodeBadInput, "a and b are required"), types.NewMeta(start))
				}
				return types.Success(map[string]float64{"sum": *in.A + *in.B}, types.NewMeta(start))
			}),
		},
		{
			Spec: Spec{
				Name:        "normalize_name",
				Description: "Normalize a name: trim, collapse spaces, title-case.",
				InputSchema: object(map[string]any{"name": str("name to normalize")}, "name"),
			},
			Handler: typed(func(_ context.Context, in nameInput) types.Envelope {
				start := time.Now()
				return types.Success(map[string]string{"normalized": NormalizeName(in.Name)}, types.NewMeta(start))
			}),
		},
		{
			Spec: Spec{
				Name:        "echo",
				Description: "Return the input value unchanged.",
				InputSchema: object(map[string]any{"input_value": map[string]any{"description": "any JSON value"}}, "input_value"),
			},
			Handler: typed(func(_ context.Context, in echoInput) types.Envelope {
				start := time.Now()
				return types.Success(map[string]any{
					"echoed":  in.InputValue,
					"message": EchoMessage,
				}, types.NewMeta(start))
			}),
		},
		{
			Spec: Spec{
				Name:        "health",
				Description: "Report service liveness.",
				InputSchema: object(map[string]any{}),
			},
			Handler: typed(func(_ context.Context, _ struct{}) types.Envelope {
				return types.Success(map[string]string{"status": HealthStatus}, types.NewMeta(time.Now()))
			}),
		},
		{
			Spec: Spec{
				Name:        "code_review_prompt",
				Description: "Render a code review prompt for the given code.",
				InputSchema: object(map[string]any{"code": str("source code to review")}, "code"),
			},
			Handler: typed(func(_ context.Context, in codeInput) types.Envelope {
				start := time.Now()
				return types.Success(map[string]string{"prompt": CodeReviewPrompt(in.Code)}, types.NewMeta(start))
			}),
		},
	}
}
