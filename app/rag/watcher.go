package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"RagBot/app/utils"
)

const settleDelay = 500 * time.Millisecond

// Watcher ingests documents dropped into a folder while the bot runs.
type Watcher struct {
	dir      string
	ingester *Ingester
	watcher  *fsnotify.Watcher
	delay    time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(dir string, ingester *Ingester) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err = w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		ingester: ingester,
		watcher:  w,
		delay:    settleDelay,
		pending:  map[string]*time.Timer{},
	}, nil
}

// Run blocks until ctx is done. A new file is ingested once writes to it
// have been quiet for the settle delay. Stored chunks are immutable, so a
// file whose chunks are already in the collection is skipped, and edits to
// it are not picked up.
func (w *Watcher) Run(ctx context.Context) error {
	log.Printf("👀 Watching %s for new documents", w.dir)
	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !utils.HasExtension(event.Name, SupportedExtensions) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("⚠️ Watcher error: %v", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.delay)
		return
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	report, err := w.ingester.Ingest(ctx, []string{path}, nil)
	switch {
	case errors.Is(err, ErrDuplicateID):
		log.Printf("⚠️ Skipping %s, already ingested: %v", path, err)
	case err != nil:
		log.Printf("❌ Failed to ingest %s: %v", path, err)
	default:
		log.Printf("✅ Ingested %s (%d chunks)", path, report.TotalChunks())
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
