package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"RagBot/app/clients"
	"RagBot/app/embeddings"
	"RagBot/app/handler"
	"RagBot/app/models"
	"RagBot/app/rag"
	"RagBot/app/runtime"
	"RagBot/app/splitter"
)

const (
	StoreChromem = "chromem"
	StoreQdrant  = "qdrant"

	DefaultVectorPath  = "DB/chroma_db"
	DefaultStoragePath = "./data/database.db"
	DefaultTemplate    = "detailed_ar"
	DefaultAuditLines  = 200
)

type Config struct {
	Collection  string            `yaml:"collection" validate:"required"`
	Template    string            `yaml:"template"`
	NResults    int               `yaml:"n_results" validate:"gte=0"`
	Splitter    splitter.Config   `yaml:"splitter"`
	Embeddings  embeddings.Config `yaml:"embeddings"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	LLM         models.Options    `yaml:"llm"`
	Storage     StorageConfig     `yaml:"storage"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Runtime     RuntimeConfig     `yaml:"runtime"`
	Clients     []clients.Config  `yaml:"clients,omitempty" validate:"dive"`
}

type VectorStoreConfig struct {
	Type     string           `yaml:"type" validate:"omitempty,oneof=chromem qdrant"`
	Path     string           `yaml:"path"`
	Compress bool             `yaml:"compress"`
	Qdrant   rag.QdrantConfig `yaml:"qdrant"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

// IngestConfig points at the document folder loaded into an empty
// collection at startup. Watch keeps ingesting files added later.
type IngestConfig struct {
	Folder string `yaml:"folder"`
	Watch  bool   `yaml:"watch"`
}

type RuntimeConfig struct {
	QueueSize  int `yaml:"queue_size" validate:"gte=0"`
	AuditLines int `yaml:"audit_lines" validate:"gte=0"`
}

func Default() *Config {
	return &Config{
		Collection: rag.DefaultCollection,
		Template:   DefaultTemplate,
		NResults:   handler.DefaultNResults,
		Splitter: splitter.Config{
			Type:      splitter.TypeRecursive,
			ChunkSize: splitter.DefaultChunkSize,
			Overlap:   splitter.DefaultOverlap,
		},
		Embeddings: embeddings.Config{Type: embeddings.TypeLocal},
		VectorStore: VectorStoreConfig{
			Type: StoreChromem,
			Path: DefaultVectorPath,
		},
		LLM: models.Options{
			Provider: models.ProviderGemini,
			Model:    "gemini-1.0-pro-latest",
		},
		Storage: StorageConfig{Path: DefaultStoragePath},
		Runtime: RuntimeConfig{
			QueueSize:  runtime.DefaultQueueSize,
			AuditLines: DefaultAuditLines,
		},
	}
}

// LoadConfig reads path on top of Default, expanding ${VAR} references. A
// missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the well-known environment variables. A
// bot token for a front-end that is not configured enables it.
func ApplyEnv(c *Config) error {
	setString(&c.Collection, "COLLECTION_NAME")
	setString(&c.Template, "PROMPT_TEMPLATE")
	setString(&c.VectorStore.Path, "VECTOR_DB_PATH")
	setString(&c.Storage.Path, "DB_PATH")
	setString(&c.Ingest.Folder, "FOLDER_RAG")
	setString(&c.VectorStore.Qdrant.Host, "QDRANT_URL")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")

	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.Provider == models.ProviderGemini && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QDRANT_PORT: %w", err)
		}
		c.VectorStore.Qdrant.Port = port
	}

	c.enableClient("telegram", os.Getenv("TELEGRAM_TOKEN"))
	c.enableClient("discord", os.Getenv("DISCORD_TOKEN"))
	return nil
}

func (c *Config) enableClient(kind, token string) {
	if token == "" {
		return
	}
	for i := range c.Clients {
		if c.Clients[i].Type != kind {
			continue
		}
		if c.Clients[i].Config == nil {
			c.Clients[i].Config = map[string]string{}
		}
		if c.Clients[i].Config["token"] == "" {
			c.Clients[i].Config["token"] = token
		}
		return
	}
	c.Clients = append(c.Clients, clients.Config{
		Type:    kind,
		Enabled: true,
		Config:  map[string]string{"token": token},
	})
}

func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configs: %w", err)
	}
	if c.LLM.Provider == "" {
		return fmt.Errorf("llm provider cannot be empty")
	}
	if c.VectorStore.Type == StoreQdrant && c.VectorStore.Qdrant.Host == "" {
		return fmt.Errorf("qdrant host cannot be empty")
	}
	if c.Splitter.ChunkSize > 0 && c.Splitter.Overlap >= c.Splitter.ChunkSize {
		return fmt.Errorf("splitter: %w", splitter.ErrInvalidOverlap)
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
