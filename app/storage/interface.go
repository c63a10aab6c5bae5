package storage

import (
	"context"
	"time"
)

type Interface interface {
	SaveExchange(ctx context.Context, exchange Exchange) error
	// RecentExchanges returns up to n exchanges of a chat on one client,
	// oldest first.
	RecentExchanges(ctx context.Context, client, chatID string, n int) ([]Exchange, error)
	Close() error
}

// Exchange is one answered (or failed) message.
type Exchange struct {
	ID        string        `json:"id" db:"id"`
	Client    string        `json:"client" db:"client"`
	ChatID    string        `json:"chat_id" db:"chat_id"`
	Query     string        `json:"query" db:"query"`
	Response  string        `json:"response" db:"response"`
	Error     string        `json:"error,omitempty" db:"error"`
	Duration  time.Duration `json:"duration" db:"duration_ms"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
