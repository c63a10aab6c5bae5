package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"RagBot/app/restclient"
	rc "RagBot/app/utils/restclient"
)

const (
	embeddingEndpoint = "/v1/embeddings"

	DefaultLocalURL   = "http://localhost:1234"
	DefaultLocalModel = "text-embedding-nomic-embed-text-v1.5@q8_0"

	maxRetries      = 3
	retryBackoff    = 100 * time.Millisecond
	maxCacheEntries = 4096
)

var _ Interface = &Local{}

type embeddingRequestPayload struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Data  []embeddingItem `json:"data"`
	Model string          `json:"model"`
}

// Local talks to an OpenAI-compatible embeddings server such as LM Studio.
// Vectors are cached per input text until the cache holds maxCacheEntries;
// later texts are embedded on every call.
type Local struct {
	restClient restclient.Interface
	model      string
	backoff    time.Duration
	cache      sync.Map
	cached     atomic.Int64
	dimensions atomic.Int64
}

func NewLocal(baseURL, model string) (*Local, error) {
	if baseURL == "" {
		baseURL = DefaultLocalURL
	}
	if model == "" {
		model = DefaultLocalModel
	}
	return &Local{
		restClient: rc.NewRestClient(baseURL, nil),
		model:      model,
		backoff:    retryBackoff,
	}, nil
}

func (l *Local) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []int
	for i, t := range texts {
		if v, ok := l.cache.Load(t); ok {
			out[i] = v.([]float32)
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	input := make([]string, len(missing))
	for j, i := range missing {
		input[j] = texts[i]
	}
	resp, err := l.send(ctx, embeddingRequestPayload{Model: l.model, Input: input})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(input), len(resp.Data))
	}
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(input) {
			return nil, fmt.Errorf("unexpected embedding index %d", item.Index)
		}
		i := missing[item.Index]
		out[i] = item.Embedding
		l.remember(texts[i], item.Embedding)
	}
	return out, nil
}

func (l *Local) remember(text string, vec []float32) {
	if l.cached.Load() >= maxCacheEntries {
		return
	}
	if _, loaded := l.cache.LoadOrStore(text, vec); !loaded {
		l.cached.Add(1)
	}
}

func (l *Local) send(ctx context.Context, payload embeddingRequestPayload) (*embeddingResponse, error) {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.backoff << uint(i)):
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, status, err := l.restClient.Post(ctx, embeddingEndpoint, payload, nil)
		if err != nil {
			lastErr = err
			log.Printf("⚠️ embed attempt %d failed: http=%d err=%v", i+1, status, err)
			continue
		}
		if !rc.IsSuccess(status) {
			lastErr = &rc.StatusError{Status: status, Body: string(body)}
			log.Printf("⚠️ embed attempt %d failed: %v", i+1, lastErr)
			continue
		}

		var out embeddingResponse
		if err = json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("parse embeddings json: %w", err)
			log.Printf("⚠️ %v", lastErr)
			continue
		}
		return &out, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no attempt made")
	}
	return nil, fmt.Errorf("embeddings request failed after %d retries: %w", maxRetries, lastErr)
}

func (l *Local) Dimensions() int {
	return int(l.dimensions.Load())
}

func (l *Local) ModelID() string {
	return l.model
}

func (l *Local) setDimensions(d int) {
	l.dimensions.Store(int64(d))
}
