package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"huskybot/pkg/llm"
	"huskybot/pkg/search"
)

// Session interface abstracts discordgo.Session for testing
type Session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) (err error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
}

// DiscordSession adapts discordgo.Session to the Session interface
type DiscordSession struct {
	*discordgo.Session
}

// LLMClient is the inference endpoint surface the bot needs.
type LLMClient interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)
	CompleteStream(ctx context.Context, messages []llm.Message, opts llm.Options, onDelta func(string)) error
}

// Searcher performs web lookups for the investigative pipeline.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.SearchOptions) ([]search.SearchResult, error)
}

// ImageFetcher downloads attachment bytes.
type ImageFetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// SearchCache is the optional Redis-backed result cache. A nil value
// disables caching.
type SearchCache interface {
	Key(parts ...string) string
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}
