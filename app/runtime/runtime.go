package runtime

import (
	"context"
	"log"
	"time"

	"RagBot/app/storage"
)

const DefaultQueueSize = 100

// Runtime serializes message handling: events are processed one at a time,
// in arrival order, each to completion before the next starts.
type Runtime struct {
	events chan Event
	db     storage.Interface
}

func NewRuntime(db storage.Interface, queueSize int) *Runtime {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Runtime{
		events: make(chan Event, queueSize),
		db:     db,
	}
}

// QueueEvent enqueues ev without blocking. When the queue is full the event
// is answered with BusyMessage and false is returned.
func (r *Runtime) QueueEvent(ev Event) bool {
	select {
	case r.events <- ev:
		return true
	default:
		log.Printf("⚠️ Event queue is full, dropping message from %s/%s", ev.Client, ev.ChatID)
		if ev.Reply != nil {
			ev.Reply(BusyMessage)
		}
		return false
	}
}

// Start blocks, handling events until ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) error {
	log.Println("🚀 Runtime started")
	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Runtime stopped")
			return nil
		case ev := <-r.events:
			r.handleEvent(ctx, ev)
		}
	}
}

// History returns the last n exchanges of a chat on client, oldest first.
func (r *Runtime) History(ctx context.Context, client, chatID string, n int) ([]storage.Exchange, error) {
	if r.db == nil {
		return nil, nil
	}
	return r.db.RecentExchanges(ctx, client, chatID, n)
}

func (r *Runtime) handleEvent(ctx context.Context, ev Event) {
	log.Printf("🆕 Message from %s/%s", ev.Client, ev.ChatID)
	start := time.Now()

	reply, err := ev.Handle(ctx, ev.Query)
	if ev.Reply != nil {
		ev.Reply(reply)
	}

	exchange := storage.Exchange{
		Client:    ev.Client,
		ChatID:    ev.ChatID,
		Query:     ev.Query,
		Response:  reply,
		Duration:  time.Since(start),
		CreatedAt: start,
	}
	if err != nil {
		log.Printf("❌ Error handling message from %s/%s: %v", ev.Client, ev.ChatID, err)
		exchange.Error = err.Error()
	}
	if r.db == nil {
		return
	}
	if err = r.db.SaveExchange(ctx, exchange); err != nil {
		log.Printf("⚠️ Could not save exchange: %v", err)
	}
}
