package clients

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"RagBot/app/runtime"
	"RagBot/app/storage"
)

const (
	WelcomeMessage    = "Welcome! I'm a bot powered by an LLM. Send me a message, and I'll generate a response."
	NoHandlerMessage  = "LLM handler not set. Unable to process message."
	LogsDeniedMessage = "Only the bot admin can read the logs."

	historySize = 5
	logsSize    = 20
)

// ErrStopped is returned by Run when the user closed the front-end itself.
var ErrStopped = errors.New("client stopped by user")

// Responder turns a user query into a reply. handler.Handler satisfies it.
type Responder interface {
	GenerateResponse(ctx context.Context, query string) (string, error)
}

type Interface interface {
	Name() string
	Subscribe(*runtime.Runtime)
	SetHandler(Responder)
	Run(ctx context.Context) error
	Close() error
}

type Client struct {
	name    string
	admin   string
	runtime *runtime.Runtime

	mu      sync.RWMutex
	handler Responder
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Subscribe(rt *runtime.Runtime) {
	c.runtime = rt
}

func (c *Client) SetHandler(h Responder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Respond answers one message. A handler failure is turned into a
// user-visible reply and also returned so it can be recorded.
func (c *Client) Respond(ctx context.Context, text string) (string, error) {
	switch command(text) {
	case "/start", "/help", "!help":
		return WelcomeMessage, nil
	}

	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		return NoHandlerMessage, nil
	}

	reply, err := h.GenerateResponse(ctx, text)
	if err != nil {
		return "An error occurred: " + err.Error(), err
	}
	return reply, nil
}

// dispatch routes a message sent by senderID in chatID. Bookkeeping
// commands are answered right away; everything else goes through the
// runtime queue so only one message is processed at a time.
func (c *Client) dispatch(ctx context.Context, chatID, senderID, text string, reply func(string)) {
	switch command(text) {
	case "/history", "!history":
		reply(c.history(ctx, chatID))
		return
	case "/logs", "!logs":
		if !c.isAdmin(senderID) {
			log.Printf("⚠️ [%s] Refused logs to %s", c.name, senderID)
			reply(LogsDeniedMessage)
			return
		}
		reply(recentLogs())
		return
	}

	if c.runtime == nil {
		out, err := c.Respond(ctx, text)
		if err != nil {
			log.Printf("❌ [%s] %v", c.name, err)
		}
		reply(out)
		return
	}
	c.runtime.QueueEvent(runtime.Event{
		Client: c.name,
		ChatID: chatID,
		Query:  text,
		Handle: c.Respond,
		Reply:  reply,
	})
}

func (c *Client) history(ctx context.Context, chatID string) string {
	if c.runtime == nil {
		return storage.FormatExchanges(nil)
	}
	exchanges, err := c.runtime.History(ctx, c.name, chatID, historySize)
	if err != nil {
		log.Printf("⚠️ [%s] Could not load history: %v", c.name, err)
		return "Could not load the history."
	}
	return storage.FormatExchanges(exchanges)
}

// isAdmin reports whether senderID may read the logs. Without a configured
// admin nobody can.
func (c *Client) isAdmin(senderID string) bool {
	return c.admin != "" && senderID == c.admin
}

func recentLogs() string {
	if runtime.AuditInstance == nil {
		return "Logs are not being captured."
	}
	lines := runtime.AuditInstance.GetLastLogs(logsSize)
	if len(lines) == 0 {
		return "No logs yet."
	}
	return strings.Join(lines, "\n")
}

// command returns the lowercased first word of text without any
// "@botname" suffix, or "" when text is not a command.
func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := fields[0]
	if !strings.HasPrefix(cmd, "/") && !strings.HasPrefix(cmd, "!") {
		return ""
	}
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// splitMessage cuts text into parts of at most limit runes, preferring to
// break after a newline.
func splitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
