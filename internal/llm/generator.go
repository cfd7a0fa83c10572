// Package llm produces answers from prompts using a large language model.
package llm

import (
	"context"
	"fmt"
)

// Generator returns a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"
)

// Options selects and configures a generator.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// New creates the generator named by opts.Provider.
func New(opts Options) (Generator, error) {
	switch opts.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIGenerator(opts)
	case ProviderEcho:
		return Echo(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai, echo)", opts.Provider)
	}
}

// Echo returns a generator that answers with the prompt itself. It needs no
// network access and is meant for local runs and smoke tests.
func Echo() Generator {
	return GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		return prompt, nil
	})
}
