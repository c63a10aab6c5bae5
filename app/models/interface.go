// Package models wraps the LLM providers behind one configure-once Backend.
package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	ProviderGemini   = "gemini"
	ProviderAnyLLM   = "anyllm"
	ProviderTitan    = "titan"
	ProviderClaude   = "claude"
	ProviderCustom   = "custom"
	ProviderLMStudio = "lmstudio"
)

var (
	ErrNotConfigured     = errors.New("model is not configured, call Configure first")
	ErrAlreadyConfigured = errors.New("model is already configured")
	ErrGeneration        = errors.New("generation failed")
)

// Backend is a text-in, text-out model. Configure runs once before any
// GenerateContent call.
type Backend interface {
	Configure(ctx context.Context, opts Options) error
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Options carries every provider's settings. Each backend reads only the
// fields it needs.
type Options struct {
	Provider  string `yaml:"provider" validate:"omitempty,oneof=gemini anyllm titan claude custom lmstudio"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	Region    string `yaml:"region"`
	ModelID   string `yaml:"model_id"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	AuthToken string `yaml:"auth_token"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	// SubProvider selects the any-llm provider (openai, anthropic, ...).
	SubProvider string `yaml:"sub_provider"`
}

func New(name string) (Backend, error) {
	switch name {
	case ProviderGemini:
		return NewGeminiBackend(), nil
	case ProviderAnyLLM:
		return NewAnyLLMBackend(), nil
	case ProviderTitan:
		return NewTitanBackend(), nil
	case ProviderClaude:
		return NewClaudeBackend(), nil
	case ProviderCustom:
		return NewCustomBackend(), nil
	case ProviderLMStudio:
		return NewLMStudioBackend(), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q", name)
	}
}

// configGuard implements the configure-once rule shared by every backend.
// A failed configure leaves the backend unconfigured so it can be retried.
type configGuard struct {
	mu   sync.Mutex
	done bool
}

func (g *configGuard) configure(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return ErrAlreadyConfigured
	}
	if err := fn(); err != nil {
		return err
	}
	g.done = true
	return nil
}

func (g *configGuard) ready() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.done {
		return ErrNotConfigured
	}
	return nil
}

func generationErr(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrGeneration, provider, err)
}
