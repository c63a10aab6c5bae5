package clients

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const discordMessageLimit = 2000

var _ Interface = &DiscordClient{}

type DiscordClient struct {
	Client
	session   *discordgo.Session
	channelID string
	ctx       context.Context
}

// NewDiscordClientFromConfig reads token, channel_id and admin from cfg,
// falling back to DISCORD_TOKEN, DISCORD_CHANNEL_ID and DISCORD_ADMIN.
func NewDiscordClientFromConfig(cfg map[string]string) (*DiscordClient, error) {
	token := valueOrEnv(cfg, "token", "DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	dc := &DiscordClient{
		Client: Client{
			name:  "discord",
			admin: valueOrEnv(cfg, "admin", "DISCORD_ADMIN"),
		},
		session:   session,
		channelID: valueOrEnv(cfg, "channel_id", "DISCORD_CHANNEL_ID"),
		ctx:       context.Background(),
	}

	session.AddHandler(dc.onMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return dc, nil
}

func (c *DiscordClient) Run(ctx context.Context) error {
	c.ctx = ctx
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("🔌 Discord client started. Listening for messages...")
	<-ctx.Done()
	return nil
}

func (c *DiscordClient) Close() error {
	return c.session.Close()
}

func (c *DiscordClient) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if !c.accepts(m.GuildID, m.ChannelID, m.Author.ID) {
		return
	}
	text := strings.TrimSpace(m.Content)
	if text == "" {
		return
	}

	ref := m.Reference()
	c.dispatch(c.ctx, m.ChannelID, m.Author.ID, text, func(reply string) {
		c.send(m.ChannelID, reply, ref)
	})
}

// accepts filters messages to the configured channel and admin. Direct
// messages skip the channel filter.
func (c *DiscordClient) accepts(guildID, channelID, authorID string) bool {
	if c.admin != "" && authorID != c.admin {
		return false
	}
	if c.channelID != "" && guildID != "" && channelID != c.channelID {
		return false
	}
	return true
}

func (c *DiscordClient) send(channelID, content string, ref *discordgo.MessageReference) {
	for i, part := range splitMessage(content, discordMessageLimit) {
		var err error
		if i == 0 && ref != nil {
			_, err = c.session.ChannelMessageSendReply(channelID, part, ref)
		} else {
			_, err = c.session.ChannelMessageSend(channelID, part)
		}
		if err != nil {
			log.Printf("⚠️ Failed to send discord message: %v", err)
			return
		}
	}
}

func valueOrEnv(cfg map[string]string, key, env string) string {
	if v := cfg[key]; v != "" {
		return v
	}
	return os.Getenv(env)
}
