package clients

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"RagBot/app/runtime"
	"RagBot/app/storage"
)

type responderFunc func(ctx context.Context, query string) (string, error)

func (f responderFunc) GenerateResponse(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

func echo() Responder {
	return responderFunc(func(_ context.Context, q string) (string, error) {
		return "echo: " + q, nil
	})
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	failing := responderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("boom")
	})

	tests := []struct {
		name    string
		handler Responder
		text    string
		want    string
		wantErr bool
	}{
		{name: "start", handler: echo(), text: "/start", want: WelcomeMessage},
		{name: "help with bot name", handler: echo(), text: "/help@rag_bot", want: WelcomeMessage},
		{name: "bang help", handler: echo(), text: "!help", want: WelcomeMessage},
		{name: "welcome without handler", text: "/start", want: WelcomeMessage},
		{name: "no handler", text: "hello", want: NoHandlerMessage},
		{name: "handler reply", handler: echo(), text: "What is X?", want: "echo: What is X?"},
		{name: "handler error", handler: failing, text: "hi", want: "An error occurred: boom", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{name: "test"}
			if tt.handler != nil {
				c.SetHandler(tt.handler)
			}
			got, err := c.Respond(ctx, tt.text)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "/start", command("/START"))
	assert.Equal(t, "/help", command("  /help@my_bot please"))
	assert.Equal(t, "!history", command("!history"))
	assert.Equal(t, "", command("what is /start?"))
	assert.Equal(t, "", command(""))
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, splitMessage("", 10))
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage(strings.Repeat("a", 25), 10)
	assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 5)}, parts)

	parts = splitMessage("line one\nline two\nline three", 12)
	assert.Equal(t, "line one\n", parts[0])
	assert.Equal(t, "line one\nline two\nline three", strings.Join(parts, ""))

	parts = splitMessage("ééééé", 2)
	assert.Equal(t, []string{"éé", "éé", "é"}, parts)
}

func TestDispatchWithoutRuntime(t *testing.T) {
	c := &Client{name: "test"}
	c.SetHandler(echo())

	var got string
	c.dispatch(context.Background(), "1", "1", "ping", func(s string) { got = s })
	assert.Equal(t, "echo: ping", got)

	c.dispatch(context.Background(), "1", "1", "/history", func(s string) { got = s })
	assert.Equal(t, "No previous messages.", got)
}

func TestDispatchThroughRuntime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := &storage.MockStorage{}
	db.On("SaveExchange", mock.Anything, mock.AnythingOfType("storage.Exchange")).Return(nil)

	rt := runtime.NewRuntime(db, 4)
	go rt.Start(ctx)

	c := &Client{name: "test"}
	c.Subscribe(rt)
	c.SetHandler(echo())

	replies := make(chan string, 1)
	c.dispatch(ctx, "42", "7", "ping", func(s string) { replies <- s })

	select {
	case got := <-replies:
		assert.Equal(t, "echo: ping", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
	}
}

func TestDispatchHistoryScopedToClient(t *testing.T) {
	ctx := context.Background()
	db := &storage.MockStorage{}
	db.On("RecentExchanges", ctx, "telegram", "42", historySize).
		Return([]storage.Exchange{{Query: "q", Response: "a"}}, nil)

	c := &Client{name: "telegram"}
	c.Subscribe(runtime.NewRuntime(db, 1))

	var got string
	c.dispatch(ctx, "42", "7", "/history", func(s string) { got = s })
	assert.Contains(t, got, "Q: q\nA: a")
	db.AssertExpectations(t)
}

func TestDispatchLogs(t *testing.T) {
	prev := runtime.AuditInstance
	t.Cleanup(func() { runtime.AuditInstance = prev })

	runtime.AuditInstance = nil
	assert.Equal(t, "Logs are not being captured.", recentLogs())

	audit := runtime.NewAuditLogger(10)
	_, _ = audit.Write([]byte("first\nsecond\n"))
	runtime.AuditInstance = audit

	c := &Client{name: "test", admin: "99"}
	var got string
	c.dispatch(context.Background(), "1", "99", "/logs", func(s string) { got = s })
	assert.Equal(t, "first\nsecond", got)

	c.dispatch(context.Background(), "1", "5", "!logs", func(s string) { got = s })
	assert.Equal(t, LogsDeniedMessage, got)

	(&Client{name: "open"}).dispatch(context.Background(), "1", "5", "/logs", func(s string) { got = s })
	assert.Equal(t, LogsDeniedMessage, got, "no admin configured")
}

type fakeTelegram struct {
	updates chan tgbotapi.Update
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	stopped int
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeTelegram) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func TestTelegramRepliesToMessages(t *testing.T) {
	fake := &fakeTelegram{updates: make(chan tgbotapi.Update, 2)}
	c := newTelegramClient(fake, "")
	c.SetHandler(echo())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	fake.updates <- tgbotapi.Update{UpdateID: 1}
	fake.updates <- tgbotapi.Update{
		UpdateID: 2,
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: 42},
			Text:      "hello",
		},
	}

	assert.Eventually(t, func() bool { return len(fake.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	msg := fake.messages()[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, 7, msg.ReplyToMessageID)
	assert.Equal(t, "echo: hello", msg.Text)

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, c.Close())
	assert.Equal(t, 1, fake.stopped)
}

func TestTelegramSplitsLongReplies(t *testing.T) {
	fake := &fakeTelegram{}
	c := newTelegramClient(fake, "")

	c.send(1, 3, strings.Repeat("x", telegramMessageLimit+1))
	sent := fake.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, 3, sent[0].ReplyToMessageID)
	assert.Zero(t, sent[1].ReplyToMessageID)
	assert.Len(t, sent[1].Text, 1)
}

func TestTelegramLogsOnlyForAdmin(t *testing.T) {
	prev := runtime.AuditInstance
	t.Cleanup(func() { runtime.AuditInstance = prev })
	runtime.AuditInstance = runtime.NewAuditLogger(10)
	_, _ = runtime.AuditInstance.Write([]byte("secret line\n"))

	fake := &fakeTelegram{}
	c := newTelegramClient(fake, "1001")
	logsFrom := func(from *tgbotapi.User) tgbotapi.Update {
		return tgbotapi.Update{Message: &tgbotapi.Message{
			MessageID: 3,
			From:      from,
			Chat:      &tgbotapi.Chat{ID: 42},
			Text:      "/logs",
		}}
	}

	c.handleUpdate(context.Background(), logsFrom(&tgbotapi.User{ID: 2002}))
	c.handleUpdate(context.Background(), logsFrom(nil))
	c.handleUpdate(context.Background(), logsFrom(&tgbotapi.User{ID: 1001}))

	sent := fake.messages()
	require.Len(t, sent, 3)
	assert.Equal(t, LogsDeniedMessage, sent[0].Text)
	assert.Equal(t, LogsDeniedMessage, sent[1].Text)
	assert.Equal(t, "secret line", sent[2].Text)
}

func TestDiscordAccepts(t *testing.T) {
	c := &DiscordClient{Client: Client{admin: "admin"}, channelID: "chan"}
	assert.True(t, c.accepts("guild", "chan", "admin"))
	assert.False(t, c.accepts("guild", "other", "admin"))
	assert.True(t, c.accepts("", "dm", "admin"))
	assert.False(t, c.accepts("guild", "chan", "someone"))

	open := &DiscordClient{}
	assert.True(t, open.accepts("guild", "any", "anyone"))
}

func TestConsoleModel(t *testing.T) {
	var submitted string
	m := newConsoleModel(func(s string) { submitted = s })

	model, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = model.(consoleModel)
	assert.Contains(t, m.View(), "RagBot")

	m.input.SetValue("What is X?")
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(consoleModel)
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, "What is X?", submitted)
	assert.Equal(t, 1, m.waiting)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "Thinking...")

	model, _ = m.Update(replyMsg("X is a letter."))
	m = model.(consoleModel)
	assert.Zero(t, m.waiting)
	assert.Contains(t, m.View(), "X is a letter.")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

type fakeClient struct {
	Client
	runErr error
	closed bool
}

func (f *fakeClient) Run(ctx context.Context) error {
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	rt := runtime.NewRuntime(nil, 1)
	ok := &fakeClient{Client: Client{name: "ok"}}
	bad := &fakeClient{Client: Client{name: "bad"}, runErr: errors.New("boom")}

	require.NoError(t, reg.Register(ok, rt))
	require.NoError(t, reg.Register(bad, rt))
	assert.Error(t, reg.Register(nil, rt))
	assert.Same(t, rt, ok.runtime)

	reg.BindHandler(echo())
	got, err := ok.Respond(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", got)

	err = reg.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")

	reg.CloseAll()
	assert.True(t, ok.closed)
	assert.True(t, bad.closed)
	assert.Empty(t, reg.GetAll())
}

func TestCreateClient(t *testing.T) {
	_, err := CreateClient(Config{Type: "console"})
	assert.ErrorContains(t, err, "disabled")

	_, err = CreateClient(Config{Type: "slack", Enabled: true})
	assert.ErrorContains(t, err, "unknown client type")

	t.Setenv("DISCORD_TOKEN", "")
	_, err = CreateClient(Config{Type: "discord", Enabled: true})
	assert.ErrorContains(t, err, "token is required")

	t.Setenv("TELEGRAM_TOKEN", "")
	_, err = CreateClient(Config{Type: "telegram", Enabled: true})
	assert.ErrorContains(t, err, "token is required")

	client, err := CreateClient(Config{Type: "console", Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "console", client.Name())
}
