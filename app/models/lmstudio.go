package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"RagBot/app/restclient"
	urest "RagBot/app/utils/restclient"
)

const (
	DefaultLMStudioURL   = "http://localhost:1234"
	DefaultLMStudioModel = "qwen2.5-7b-instruct-1m"

	chatEndpoint = "/v1/chat/completions"
)

var _ Backend = &LMStudioBackend{}

// LMStudioBackend talks to any OpenAI-compatible chat completions server,
// LM Studio by default.
type LMStudioBackend struct {
	guard       configGuard
	restClient  restclient.Interface
	model       string
	temperature float64
}

func NewLMStudioBackend() *LMStudioBackend {
	return &LMStudioBackend{temperature: 0.2}
}

func (mc *LMStudioBackend) Configure(_ context.Context, opts Options) error {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultLMStudioURL
	}
	var headers map[string]string
	if opts.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + opts.APIKey}
	}
	return mc.use(urest.NewRestClient(baseURL, headers), opts.Model)
}

func (mc *LMStudioBackend) use(client restclient.Interface, model string) error {
	return mc.guard.configure(func() error {
		if model == "" {
			model = DefaultLMStudioModel
		}
		mc.restClient = client
		mc.model = model
		return nil
	})
}

func (mc *LMStudioBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := mc.guard.ready(); err != nil {
		return "", err
	}
	payload := requestPayload{
		Model:       mc.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: mc.temperature,
		MaxTokens:   -1,
	}
	response, err := mc.sendRequestAndParse(ctx, payload)
	if err != nil {
		return "", generationErr(ProviderLMStudio, err)
	}
	if len(response.Choices) == 0 {
		return "", generationErr(ProviderLMStudio, errors.New("empty choices in response"))
	}
	return response.Choices[0].Message.Content, nil
}

func (mc *LMStudioBackend) sendRequestAndParse(ctx context.Context, payload requestPayload) (*ResponseLLM, error) {
	body, status, err := mc.restClient.Post(ctx, chatEndpoint, payload, nil)
	if err != nil {
		return nil, err
	}
	if !urest.IsSuccess(status) {
		log.Printf("⚠️ Chat completion failed: HTTP %d", status)
		return nil, &urest.StatusError{Status: status, Body: string(body)}
	}

	var generated ResponseLLM
	if err = json.Unmarshal(body, &generated); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &generated, nil
}
