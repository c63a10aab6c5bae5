// Package handler answers a query by retrieving context chunks, filling the
// prompt template and asking the model.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"RagBot/app/models"
	"RagBot/app/prompts"
	"RagBot/app/rag"
)

const DefaultNResults = 30

type Option func(*Handler)

// WithNResults sets how many chunks are retrieved per query. Non-positive
// values keep the default.
func WithNResults(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.nResults = n
		}
	}
}

type Handler struct {
	store        rag.VectorStore
	llm          models.Backend
	templateName string
	template     string
	nResults     int
}

// New resolves the template once. Unknown names fall back to default_en.
func New(store rag.VectorStore, llm models.Backend, templateName string, opts ...Option) *Handler {
	tpl, ok := prompts.Lookup(templateName)
	if !ok {
		log.Printf("⚠️ Unknown prompt template %q, using %s", templateName, prompts.DefaultTemplate)
		templateName = prompts.DefaultTemplate
	}
	h := &Handler{
		store:        store,
		llm:          llm,
		templateName: templateName,
		template:     tpl,
		nResults:     DefaultNResults,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) GenerateResponse(ctx context.Context, query string) (string, error) {
	contexts, err := h.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	return h.llm.GenerateContent(ctx, h.ConstructPrompt(query, contexts))
}

// Retrieve returns the chunks the prompt for query would be built from.
func (h *Handler) Retrieve(ctx context.Context, query string) ([]string, error) {
	contexts, err := h.store.Query(ctx, query, h.nResults)
	if err != nil {
		if !errors.Is(err, rag.ErrRetrieval) {
			err = fmt.Errorf("%w: %w", rag.ErrRetrieval, err)
		}
		return nil, err
	}
	log.Printf("🔎 Retrieved %d chunks", len(contexts))
	return contexts, nil
}

func (h *Handler) ConstructPrompt(query string, contexts []string) string {
	return prompts.Fill(h.template, FormatContext(contexts), query)
}

func (h *Handler) Template() string {
	return h.template
}

func (h *Handler) TemplateName() string {
	return h.templateName
}

// FormatContext renders each chunk as a "- " bullet on its own line.
func FormatContext(contexts []string) string {
	lines := make([]string, len(contexts))
	for i, c := range contexts {
		lines[i] = "- " + c
	}
	return strings.Join(lines, "\n")
}
