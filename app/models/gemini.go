package models

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.0-pro-latest"

var _ Backend = &GeminiBackend{}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type GeminiBackend struct {
	guard  configGuard
	client *genai.Client
	model  contentGenerator
}

func NewGeminiBackend() *GeminiBackend {
	return &GeminiBackend{}
}

func (b *GeminiBackend) Configure(ctx context.Context, opts Options) error {
	return b.guard.configure(func() error {
		if opts.APIKey == "" {
			return errors.New("gemini: api key must not be empty")
		}
		name := opts.Model
		if name == "" {
			name = DefaultGeminiModel
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
		if err != nil {
			return err
		}
		b.client = client
		b.model = client.GenerativeModel(name)
		return nil
	})
}

func (b *GeminiBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := b.guard.ready(); err != nil {
		return "", err
	}
	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", generationErr(ProviderGemini, err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", generationErr(ProviderGemini, err)
	}
	return text, nil
}

func (b *GeminiBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("response has no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}
