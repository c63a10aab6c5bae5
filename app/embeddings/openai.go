package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = oai.EmbeddingModelTextEmbedding3Small

var _ Interface = &OpenAI{}

type OpenAI struct {
	client     oai.Client
	model      string
	dimensions atomic.Int64
}

func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai embeddings: api key must not be empty")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{client: oai.NewClient(opts...), model: model}, nil
}

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := o.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: o.model,
		Input: oai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("openai embeddings: unexpected index %d", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

func (o *OpenAI) Dimensions() int {
	if d := o.dimensions.Load(); d > 0 {
		return int(d)
	}
	switch o.model {
	case oai.EmbeddingModelTextEmbedding3Large:
		return 3072
	default:
		return 1536
	}
}

func (o *OpenAI) ModelID() string {
	return o.model
}

func (o *OpenAI) setDimensions(d int) {
	o.dimensions.Store(int64(d))
}
