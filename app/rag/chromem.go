package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"RagBot/app/embeddings"
)

var _ VectorStore = &ChromemStore{}

// ChromemStore keeps the collection in an embedded chromem database. With a
// path the collection is persisted on disk, one file per document.
type ChromemStore struct {
	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
	emb        embeddings.Interface
}

func NewChromemStore(path, collection string, compress bool, emb embeddings.Interface) (*ChromemStore, error) {
	if collection == "" {
		return nil, errors.New("collection name must not be empty")
	}

	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		if err = os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create vector db dir: %w", err)
		}
		if db, err = chromem.NewPersistentDB(path, compress); err != nil {
			return nil, fmt.Errorf("open vector db at %s: %w", path, err)
		}
	}

	col, err := db.GetOrCreateCollection(collection, nil, embeddingFunc(emb))
	if err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", collection, err)
	}
	log.Printf("📚 Collection %q ready (%d chunks)", collection, col.Count())

	return &ChromemStore{db: db, collection: col, emb: emb}, nil
}

func embeddingFunc(emb embeddings.Interface) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := emb.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
		}
		return vecs[0], nil
	}
}

func (s *ChromemStore) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	ids, err := checkBatch(chunks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, err = s.collection.GetByID(ctx, id); err == nil {
			return duplicateErr(id)
		}
	}

	vecs, err := s.emb.Embed(ctx, texts(chunks))
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embed chunks: expected %d vectors, got %d", len(chunks), len(vecs))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        ids[i],
			Metadata:  c.storedMetadata(),
			Embedding: vecs[i],
			Content:   c.Text,
		}
	}
	if err = s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, text string, k int) ([]string, error) {
	n := s.collection.Count()
	if k <= 0 || n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	vecs, err := s.emb.Embed(ctx, []string{text})
	if err != nil {
		return nil, retrievalErr("embed query", err)
	}
	if len(vecs) != 1 {
		return nil, retrievalErr("embed query", fmt.Errorf("expected 1 vector, got %d", len(vecs)))
	}

	results, err := s.collection.QueryEmbedding(ctx, vecs[0], k, nil, nil)
	if err != nil {
		return nil, retrievalErr("query collection", err)
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Content
	}
	return out, nil
}

func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

func (s *ChromemStore) Close() error {
	return nil
}
