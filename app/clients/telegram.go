package clients

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramMessageLimit = 4096
	telegramPollTimeout  = 60
)

var _ Interface = &TelegramClient{}

type telegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

type TelegramClient struct {
	Client
	bot      telegramAPI
	stopOnce sync.Once
}

// NewTelegramClientFromConfig reads token and admin from cfg, falling back
// to TELEGRAM_TOKEN and TELEGRAM_ADMIN. admin is the numeric user id allowed
// to read the logs. It contacts the Bot API once to check the token.
func NewTelegramClientFromConfig(cfg map[string]string) (*TelegramClient, error) {
	token := valueOrEnv(cfg, "token", "TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Printf("🔌 Authorized on telegram account %s", bot.Self.UserName)
	return newTelegramClient(bot, valueOrEnv(cfg, "admin", "TELEGRAM_ADMIN")), nil
}

func newTelegramClient(bot telegramAPI, admin string) *TelegramClient {
	return &TelegramClient{
		Client: Client{name: "telegram", admin: admin},
		bot:    bot,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (c *TelegramClient) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = telegramPollTimeout
	updates := c.bot.GetUpdatesChan(u)
	log.Println("🔌 Telegram client started. Polling for updates...")

	for {
		select {
		case <-ctx.Done():
			c.stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			c.handleUpdate(ctx, update)
		}
	}
}

func (c *TelegramClient) Close() error {
	c.stop()
	return nil
}

func (c *TelegramClient) stop() {
	c.stopOnce.Do(c.bot.StopReceivingUpdates)
}

func (c *TelegramClient) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	var senderID string
	if msg.From != nil {
		senderID = strconv.FormatInt(msg.From.ID, 10)
	}
	chatID := msg.Chat.ID
	messageID := msg.MessageID
	c.dispatch(ctx, strconv.FormatInt(chatID, 10), senderID, text, func(reply string) {
		c.send(chatID, messageID, reply)
	})
}

func (c *TelegramClient) send(chatID int64, replyTo int, content string) {
	for i, part := range splitMessage(content, telegramMessageLimit) {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == 0 {
			msg.ReplyToMessageID = replyTo
		}
		if _, err := c.bot.Send(msg); err != nil {
			log.Printf("⚠️ Failed to send telegram message: %v", err)
			return
		}
	}
}
