package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	DefaultTitanRegion  = "us-west-2"
	DefaultTitanModel   = "amazon.titan-text-express-v1"
	DefaultClaudeRegion = "us-east-1"
	DefaultClaudeModel  = "arn:aws:bedrock:us-east-1::foundation-model/anthropic.claude-v2"

	contentTypeJSON = "application/json"
)

var (
	_ Backend = &TitanBackend{}
	_ Backend = &ClaudeBackend{}
)

type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// bedrock holds what Titan and Claude share: a runtime client from the
// default AWS credential chain and the model to invoke.
type bedrock struct {
	guard   configGuard
	client  invoker
	modelID string
}

func (b *bedrock) configure(ctx context.Context, opts Options, region, modelID string) error {
	return b.guard.configure(func() error {
		if opts.Region != "" {
			region = opts.Region
		}
		if opts.ModelID != "" {
			modelID = opts.ModelID
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		b.client = bedrockruntime.NewFromConfig(cfg)
		b.modelID = modelID
		return nil
	})
}

// use binds an already built client, skipping the AWS config lookup.
func (b *bedrock) use(client invoker, modelID string) error {
	return b.guard.configure(func() error {
		b.client = client
		b.modelID = modelID
		return nil
	})
}

func (b *bedrock) invoke(ctx context.Context, provider string, body any, accept string, out any) error {
	if err := b.guard.ready(); err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return generationErr(provider, err)
	}
	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String(contentTypeJSON),
		Accept:      aws.String(accept),
		Body:        payload,
	})
	if err != nil {
		return generationErr(provider, err)
	}
	if err = json.Unmarshal(resp.Body, out); err != nil {
		return generationErr(provider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

type titanRequest struct {
	InputText            string                `json:"inputText"`
	TextGenerationConfig titanGenerationConfig `json:"textGenerationConfig"`
}

type titanGenerationConfig struct {
	MaxTokenCount int      `json:"maxTokenCount"`
	StopSequences []string `json:"stopSequences"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"topP"`
}

type titanResponse struct {
	Results []struct {
		OutputText string `json:"outputText"`
	} `json:"results"`
}

type TitanBackend struct {
	bedrock
}

func NewTitanBackend() *TitanBackend {
	return &TitanBackend{}
}

func (b *TitanBackend) Configure(ctx context.Context, opts Options) error {
	return b.configure(ctx, opts, DefaultTitanRegion, DefaultTitanModel)
}

func (b *TitanBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	req := titanRequest{
		InputText: prompt,
		TextGenerationConfig: titanGenerationConfig{
			MaxTokenCount: 8192,
			StopSequences: []string{},
			Temperature:   0,
			TopP:          1,
		},
	}
	var resp titanResponse
	if err := b.invoke(ctx, ProviderTitan, req, contentTypeJSON, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", generationErr(ProviderTitan, errors.New("response has no results"))
	}
	return resp.Results[0].OutputText, nil
}

type claudeRequest struct {
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int      `json:"max_tokens_to_sample"`
	Temperature       float64  `json:"temperature"`
	TopK              int      `json:"top_k"`
	TopP              float64  `json:"top_p"`
	StopSequences     []string `json:"stop_sequences"`
	AnthropicVersion  string   `json:"anthropic_version"`
}

type claudeResponse struct {
	Completion *string `json:"completion"`
}

type ClaudeBackend struct {
	bedrock
}

func NewClaudeBackend() *ClaudeBackend {
	return &ClaudeBackend{}
}

func (b *ClaudeBackend) Configure(ctx context.Context, opts Options) error {
	return b.configure(ctx, opts, DefaultClaudeRegion, DefaultClaudeModel)
}

func (b *ClaudeBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	req := claudeRequest{
		Prompt:            fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
		MaxTokensToSample: 3000,
		Temperature:       0.5,
		TopK:              250,
		TopP:              1,
		StopSequences:     []string{"\n\nHuman:"},
		AnthropicVersion:  "bedrock-2023-05-31",
	}
	var resp claudeResponse
	if err := b.invoke(ctx, ProviderClaude, req, "*/*", &resp); err != nil {
		return "", err
	}
	if resp.Completion == nil {
		return "", generationErr(ProviderClaude, errors.New("response has no completion"))
	}
	return *resp.Completion, nil
}
