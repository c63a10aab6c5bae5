// Package rag holds the chunk model, the vector store adapters and document
// ingestion.
package rag

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

const (
	MetaSource     = "source"
	MetaSourceID   = "source_id"
	MetaChunkIndex = "chunk_index"

	DefaultCollection = "taw_bio"
)

var (
	ErrDuplicateID = errors.New("chunk id already exists in collection")
	ErrRetrieval   = errors.New("retrieval failed")
)

// Chunk is one stored slice of a source document. It is never modified
// after Add.
type Chunk struct {
	Text     string
	SourceID string
	Index    int
	Metadata map[string]string
}

func (c Chunk) ID() string {
	return fmt.Sprintf("%s_%d", c.SourceID, c.Index)
}

// storedMetadata is the caller metadata plus the chunk's own coordinates.
func (c Chunk) storedMetadata() map[string]string {
	md := make(map[string]string, len(c.Metadata)+2)
	maps.Copy(md, c.Metadata)
	md[MetaSourceID] = c.SourceID
	md[MetaChunkIndex] = fmt.Sprintf("%d", c.Index)
	return md
}

// VectorStore persists chunks with their embeddings and answers nearest
// neighbour queries by cosine similarity.
type VectorStore interface {
	// Add stores all chunks or none. Any id that already exists, or appears
	// twice in the batch, fails the call with ErrDuplicateID.
	Add(ctx context.Context, chunks []Chunk) error
	// Query returns at most k chunk texts, nearest first.
	Query(ctx context.Context, text string, k int) ([]string, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

func duplicateErr(id string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateID, id)
}

func retrievalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRetrieval, op, err)
}

// checkBatch rejects ids repeated inside one batch.
func checkBatch(chunks []Chunk) ([]string, error) {
	ids := make([]string, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for i, c := range chunks {
		id := c.ID()
		if _, ok := seen[id]; ok {
			return nil, duplicateErr(id)
		}
		seen[id] = struct{}{}
		ids[i] = id
	}
	return ids, nil
}

func texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
