package configs

import (
	"context"
	"fmt"
	"log"

	"RagBot/app/clients"
	"RagBot/app/embeddings"
	"RagBot/app/handler"
	"RagBot/app/models"
	"RagBot/app/rag"
	"RagBot/app/runtime"
	"RagBot/app/splitter"
	"RagBot/app/storage"
)

func (c *Config) BuildSplitter() (splitter.Interface, error) {
	sp, err := splitter.New(c.Splitter)
	if err != nil {
		return nil, fmt.Errorf("build splitter: %w", err)
	}
	return sp, nil
}

// BuildEmbedder creates the embeddings model and probes it once so a
// missing model fails at startup rather than on the first query.
func (c *Config) BuildEmbedder(ctx context.Context) (embeddings.Interface, error) {
	emb, err := embeddings.New(c.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	dims, err := embeddings.Probe(ctx, emb)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Embeddings model %s ready (%d dimensions)", emb.ModelID(), dims)
	return emb, nil
}

func (c *Config) BuildVectorStore(ctx context.Context, emb embeddings.Interface) (rag.VectorStore, error) {
	switch c.VectorStore.Type {
	case "", StoreChromem:
		store, err := rag.NewChromemStore(c.VectorStore.Path, c.Collection, c.VectorStore.Compress, emb)
		if err != nil {
			return nil, fmt.Errorf("open chromem store: %w", err)
		}
		log.Printf("🔌 Using chromem collection %q at %s", c.Collection, c.VectorStore.Path)
		return store, nil
	case StoreQdrant:
		store, err := rag.NewQdrantStore(ctx, c.VectorStore.Qdrant, c.Collection, emb)
		if err != nil {
			return nil, fmt.Errorf("open qdrant store: %w", err)
		}
		log.Printf("🔌 Using qdrant collection %q at %s", c.Collection, c.VectorStore.Qdrant.Host)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector store type: %s", c.VectorStore.Type)
	}
}

// BuildBackend creates and configures the LLM backend. It is configured
// exactly once here and never again.
func (c *Config) BuildBackend(ctx context.Context) (models.Backend, error) {
	backend, err := models.New(c.LLM.Provider)
	if err != nil {
		return nil, err
	}
	if err := backend.Configure(ctx, c.LLM); err != nil {
		return nil, fmt.Errorf("configure %s backend: %w", c.LLM.Provider, err)
	}
	log.Printf("✅ LLM backend %s configured", c.LLM.Provider)
	return backend, nil
}

func (c *Config) BuildHandler(store rag.VectorStore, llm models.Backend) *handler.Handler {
	return handler.New(store, llm, c.Template, handler.WithNResults(c.NResults))
}

func (c *Config) BuildIngester(store rag.VectorStore) (*rag.Ingester, error) {
	sp, err := c.BuildSplitter()
	if err != nil {
		return nil, err
	}
	return rag.NewIngester(store, sp), nil
}

func (c *Config) BuildStorage() (storage.Interface, error) {
	db, err := storage.NewSQLiteStorage(c.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func (c *Config) BuildRuntime(db storage.Interface) *runtime.Runtime {
	return runtime.NewRuntime(db, c.Runtime.QueueSize)
}

func (c *Config) InitializeClients(clientRegistry *clients.Registry, rt *runtime.Runtime) error {
	if len(c.Clients) == 0 {
		log.Println("ℹ️ No clients configured")
		return nil
	}

	for _, clientCfg := range c.Clients {
		if !clientCfg.Enabled {
			log.Printf("⏭️ Client %s is disabled, skipping\n", clientCfg.Type)
			continue
		}

		log.Printf("🔌 Initializing %s client...\n", clientCfg.Type)
		client, err := clients.CreateClient(clientCfg)
		if err != nil {
			return fmt.Errorf("failed to create %s client: %w", clientCfg.Type, err)
		}

		if err := clientRegistry.Register(client, rt); err != nil {
			return fmt.Errorf("failed to register %s client: %w", clientCfg.Type, err)
		}

		log.Printf("✅ %s client initialized\n", clientCfg.Type)
	}

	return nil
}
