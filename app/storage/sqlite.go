package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const DefaultDBPath = "./data/database.db"

var _ Interface = &SQLiteStorage{}

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
		log.Printf("📂 DB path not set, using default: %s", dbPath)
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db at %s: %w", dbPath, err)
	}
	// a single connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS exchanges (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            client TEXT NOT NULL,
            chat_id TEXT NOT NULL,
            query TEXT NOT NULL,
            response TEXT NOT NULL,
            error TEXT NULL,
            duration_ms INTEGER NOT NULL DEFAULT 0,
            created_at TEXT NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_exchanges_client_chat ON exchanges (client, chat_id, seq);
    `)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create exchanges table: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) SaveExchange(ctx context.Context, ex Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, client, chat_id, query, response, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.Client, ex.ChatID, ex.Query, ex.Response, nullable(ex.Error),
		ex.Duration.Milliseconds(), ex.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save exchange for chat %s: %w", ex.ChatID, err)
	}
	return nil
}

func (s *SQLiteStorage) RecentExchanges(ctx context.Context, client, chatID string, n int) ([]Exchange, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client, chat_id, query, response, error, duration_ms, created_at FROM (
		     SELECT * FROM exchanges WHERE client = ? AND chat_id = ? ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`,
		client, chatID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Exchange
	for rows.Next() {
		var (
			ex         Exchange
			errText    sql.NullString
			durationMS int64
			createdAt  string
		)
		if err = rows.Scan(&ex.ID, &ex.Client, &ex.ChatID, &ex.Query, &ex.Response, &errText, &durationMS, &createdAt); err != nil {
			log.Printf("⚠️ Error scanning exchange for chat %s/%s: %v", client, chatID, err)
			continue
		}
		ex.Error = errText.String
		ex.Duration = time.Duration(durationMS) * time.Millisecond
		ex.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		history = append(history, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
