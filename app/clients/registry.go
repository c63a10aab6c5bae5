package clients

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"RagBot/app/runtime"
)

// Config defines the configuration for a client connector
type Config struct {
	Type    string            `yaml:"type" json:"type" validate:"required,oneof=discord telegram console"`
	Enabled bool              `yaml:"enabled" json:"enabled"`
	Config  map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
}

type Registry struct {
	mu      sync.RWMutex
	clients []Interface
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make([]Interface, 0),
	}
}

func (r *Registry) Register(client Interface, rt *runtime.Runtime) error {
	if client == nil {
		return fmt.Errorf("client is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients = append(r.clients, client)
	client.Subscribe(rt)

	return nil
}

// BindHandler sets h on every registered client.
func (r *Registry) BindHandler(h Responder) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, client := range r.clients {
		client.SetHandler(h)
	}
}

func (r *Registry) GetAll() []Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Interface, len(r.clients))
	copy(result, r.clients)
	return result
}

// RunAll runs every client until ctx is cancelled or one of them fails.
func (r *Registry) RunAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, client := range r.GetAll() {
		g.Go(func() error {
			if err := client.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", client.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if err := client.Close(); err != nil {
			log.Printf("⚠️ Error closing client %s: %v\n", client.Name(), err)
		}
	}
	r.clients = make([]Interface, 0)
}

func CreateClient(cfg Config) (Interface, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("client %s is disabled", cfg.Type)
	}

	switch cfg.Type {
	case "discord":
		dc, err := NewDiscordClientFromConfig(cfg.Config)
		if err != nil {
			return nil, err
		}
		return dc, nil
	case "telegram":
		tc, err := NewTelegramClientFromConfig(cfg.Config)
		if err != nil {
			return nil, err
		}
		return tc, nil
	case "console":
		return NewConsoleClient(), nil
	default:
		return nil, fmt.Errorf("unknown client type: %s", cfg.Type)
	}
}
