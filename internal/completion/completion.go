// Package completion abstracts the language-model text completion service.
//
// The pipeline depends only on Completer: a prompt template, its variables and
// a model id go in, the response text comes out. Providers live beside the
// interface (OpenAI, Anthropic) and can be wrapped with Instrumented.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Completer returns the model's text response for a request.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Request is one completion call.
type Request struct {
	// System is an optional system instruction sent ahead of the prompt.
	System string
	// Template is rendered with Variables and sent as the user message.
	// Variables are referenced as {{.content}}.
	Template  string
	Variables map[string]string
	// ModelID selects the model or deployment; empty means the provider default.
	ModelID string
	// Tools the model may call while generating.
	Tools []Tool
}

// Render executes Template against Variables. Unknown variables are an error.
func (r Request) Render() (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(r.Template)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}
	vars := r.Variables
	if vars == nil {
		vars = map[string]string{}
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return sb.String(), nil
}

// Tool is a function the model may invoke mid-generation.
type Tool struct {
	Name        string
	Description string
	// Parameters is the JSON schema of the arguments object.
	Parameters json.RawMessage
	// Call receives the raw JSON arguments and returns the JSON result.
	Call func(ctx context.Context, arguments string) (string, error)
}

// ErrToolsUnsupported is returned by providers that cannot run tool calls.
var ErrToolsUnsupported = errors.New("provider does not support tool calls")

// APIError is a non-success response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api status %d: %s", e.Provider, e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
