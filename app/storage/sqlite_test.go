package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndRecentExchanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for i := range 5 {
		require.NoError(t, s.SaveExchange(ctx, Exchange{
			Client:   "telegram",
			ChatID:   "42",
			Query:    fmt.Sprintf("q%d", i),
			Response: fmt.Sprintf("a%d", i),
			Duration: 1500 * time.Millisecond,
		}))
	}
	require.NoError(t, s.SaveExchange(ctx, Exchange{Client: "discord", ChatID: "other", Query: "x", Response: "y"}))

	got, err := s.RecentExchanges(ctx, "telegram", "42", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"q2", "q3", "q4"}, []string{got[0].Query, got[1].Query, got[2].Query})
	assert.Equal(t, "a4", got[2].Response)
	assert.Equal(t, 1500*time.Millisecond, got[0].Duration)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestSaveExchangeWithError(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.SaveExchange(ctx, Exchange{ID: "fixed", Client: "console", ChatID: "c", Query: "q", Error: "boom"}))
	got, err := s.RecentExchanges(ctx, "console", "c", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fixed", got[0].ID)
	assert.Equal(t, "boom", got[0].Error)

	assert.Error(t, s.SaveExchange(ctx, Exchange{ID: "fixed", Client: "console", ChatID: "c", Query: "q"}), "ids are unique")
}

func TestRecentExchangesScopedByClient(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.SaveExchange(ctx, Exchange{Client: "telegram", ChatID: "123", Query: "from telegram", Response: "a"}))
	require.NoError(t, s.SaveExchange(ctx, Exchange{Client: "discord", ChatID: "123", Query: "from discord", Response: "b"}))

	got, err := s.RecentExchanges(ctx, "telegram", "123", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "from telegram", got[0].Query)

	got, err = s.RecentExchanges(ctx, "discord", "123", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "from discord", got[0].Query)

	got, err = s.RecentExchanges(ctx, "console", "123", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecentExchangesEmpty(t *testing.T) {
	s := newTestStorage(t)
	got, err := s.RecentExchanges(context.Background(), "telegram", "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.RecentExchanges(context.Background(), "telegram", "nobody", 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFormatExchanges(t *testing.T) {
	assert.Equal(t, "No previous messages.", FormatExchanges(nil))

	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)
	out := FormatExchanges([]Exchange{
		{Query: "hi", Response: "hello", CreatedAt: at},
		{Query: "fail", Error: "timeout", CreatedAt: at},
	})
	assert.Equal(t, "[2024-05-01 10:30] Q: hi\nA: hello\n\n[2024-05-01 10:30] Q: fail\nError: timeout", out)
}
