package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"
)

var _ Backend = &AnyLLMBackend{}

// AnyLLMBackend reaches any provider supported by any-llm-go. Without an
// API key the provider falls back to its usual environment variable.
type AnyLLMBackend struct {
	guard    configGuard
	provider anyllmlib.Provider
	model    string
}

func NewAnyLLMBackend() *AnyLLMBackend {
	return &AnyLLMBackend{}
}

func (b *AnyLLMBackend) Configure(_ context.Context, opts Options) error {
	return b.guard.configure(func() error {
		if opts.Model == "" {
			return errors.New("anyllm: model must not be empty")
		}
		var libOpts []anyllmlib.Option
		if opts.APIKey != "" {
			libOpts = append(libOpts, anyllmlib.WithAPIKey(opts.APIKey))
		}
		if opts.BaseURL != "" {
			libOpts = append(libOpts, anyllmlib.WithBaseURL(opts.BaseURL))
		}
		provider, err := createProvider(opts.SubProvider, libOpts...)
		if err != nil {
			return fmt.Errorf("anyllm: %w", err)
		}
		b.provider = provider
		b.model = opts.Model
		return nil
	})
}

func (b *AnyLLMBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := b.guard.ready(); err != nil {
		return "", err
	}
	resp, err := b.provider.Completion(ctx, completionParams(b.model, prompt))
	if err != nil {
		return "", generationErr(ProviderAnyLLM, err)
	}
	if len(resp.Choices) == 0 {
		return "", generationErr(ProviderAnyLLM, errors.New("empty choices in response"))
	}
	return resp.Choices[0].Message.ContentString(), nil
}

func completionParams(model, prompt string) anyllmlib.CompletionParams {
	return anyllmlib.CompletionParams{
		Model: model,
		Messages: []anyllmlib.Message{
			{Role: "user", Content: prompt},
		},
	}
}

func createProvider(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(name) {
	case "openai", "":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q", name)
	}
}
