// Package embeddings turns text batches into dense vectors.
//
// Implementations return one vector per input text, in input order, and every
// vector from one instance has the same length.
package embeddings

import (
	"context"
	"fmt"
)

const (
	TypeOpenAI  = "openai"
	TypeLocal   = "local"
	TypeHashing = "hashing"

	probeText = "dimension probe"
)

type Interface interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelID() string
}

type Config struct {
	Type    string `yaml:"type" validate:"omitempty,oneof=openai local hashing"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// Dimensions only applies to the hashing embedder.
	Dimensions int `yaml:"dimensions" validate:"gte=0"`
}

func New(cfg Config) (Interface, error) {
	switch cfg.Type {
	case "", TypeLocal:
		return NewLocal(cfg.BaseURL, cfg.Model)
	case TypeOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case TypeHashing:
		return NewHashing(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embeddings type: %s", cfg.Type)
	}
}

type dimensionSetter interface {
	setDimensions(int)
}

// Probe embeds a fixed string once and records the vector size. Callers run
// it at construction so an unreachable or unloaded model fails at startup.
func Probe(ctx context.Context, emb Interface) (int, error) {
	vecs, err := emb.Embed(ctx, []string{probeText})
	if err != nil {
		return 0, fmt.Errorf("probe embeddings model %s: %w", emb.ModelID(), err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return 0, fmt.Errorf("probe embeddings model %s: empty vector", emb.ModelID())
	}
	if ds, ok := emb.(dimensionSetter); ok {
		ds.setDimensions(len(vecs[0]))
	}
	return len(vecs[0]), nil
}
