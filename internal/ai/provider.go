package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Provider is a hosted text-completion service.
type Provider interface {
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}

// Registry maps provider names ("openai", "ollama", "gemini") to clients.
type Registry map[string]Provider

func (r Registry) Get(name string) (Provider, error) {
	p, ok := r[strings.ToLower(strings.TrimSpace(name))]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Func adapts a plain function to Provider. Handy for stubs.
type Func func(ctx context.Context, systemPrompt, prompt string) (string, error)

func (f Func) CompleteWithSystem(ctx context.Context, _ string, systemPrompt string, prompt string) (string, error) {
	return f(ctx, systemPrompt, prompt)
}
