package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"huskybot/pkg/config"
	"huskybot/pkg/lexicon"
	"huskybot/pkg/llm"
	"huskybot/pkg/search"
	"huskybot/pkg/session"
)

type mockSession struct {
	mu      sync.Mutex
	nextID  int
	sent    []string
	edits   []string
	deleted []string

	sendErr error
	editErr error

	channelMessageFunc  func(channelID, messageID string) (*discordgo.Message, error)
	channelMessagesFunc func(channelID string, limit int) ([]*discordgo.Message, error)
}

func (m *mockSession) record(content string) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, content)
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", m.nextID), Content: content}, nil
}

func (m *mockSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return m.record(content)
}

func (m *mockSession) ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return m.record(content)
}

func (m *mockSession) ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editErr != nil {
		return nil, m.editErr
	}
	m.edits = append(m.edits, content)
	return &discordgo.Message{ID: messageID, Content: content}, nil
}

func (m *mockSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockSession) ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.channelMessageFunc != nil {
		return m.channelMessageFunc(channelID, messageID)
	}
	return nil, fmt.Errorf("message not found")
}

func (m *mockSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	if m.channelMessagesFunc != nil {
		return m.channelMessagesFunc(channelID, limit)
	}
	return nil, nil
}

func (m *mockSession) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	return nil
}

func (m *mockSession) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	return nil, nil
}

func (m *mockSession) allSent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func (m *mockSession) allEdits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.edits...)
}

type mockLLM struct {
	mu    sync.Mutex
	calls int

	completeFunc func(call int, messages []llm.Message, opts llm.Options) (string, error)
	streamFunc   func(messages []llm.Message, opts llm.Options, onDelta func(string)) error
}

func (m *mockLLM) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	if m.completeFunc != nil {
		return m.completeFunc(call, messages, opts)
	}
	return "", fmt.Errorf("unexpected Complete call %d", call)
}

func (m *mockLLM) CompleteStream(ctx context.Context, messages []llm.Message, opts llm.Options, onDelta func(string)) error {
	if m.streamFunc != nil {
		return m.streamFunc(messages, opts, onDelta)
	}
	return fmt.Errorf("unexpected CompleteStream call")
}

type mockFetcher struct {
	data []byte
	err  error
}

func (m *mockFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	return m.data, m.err
}

type mockSearcher struct {
	results []search.SearchResult
	err     error
	queries []string
	mu      sync.Mutex
}

func (m *mockSearcher) Search(ctx context.Context, query string, opts search.SearchOptions) ([]search.SearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type fixedPolicy struct {
	respond bool
}

func (p fixedPolicy) ShouldRespond(probability float64) bool { return p.respond }
func (p fixedPolicy) JitterDelay() time.Duration             { return 0 }

func testConfig() *config.Config {
	cfg, _ := config.LoadConfig("does-not-exist.yml")
	cfg.Investigate.Enabled = false
	return cfg
}

func testLexicon() *lexicon.Index {
	return lexicon.NewIndex(
		[]string{"character features", "scenery"},
		map[string][]lexicon.Entry{
			"character features": {
				{Term: "fox ears", Translation: "kemonomimi trait"},
				{Term: "blue eyes", Translation: ""},
			},
			"scenery": {
				{Term: "northern lights", Translation: "aurora"},
			},
		},
	)
}

func newTestHandler(llmc LLMClient, cfg *config.Config) (*Handler, *session.Store) {
	if cfg == nil {
		cfg = testConfig()
	}
	store := session.NewStore(time.Duration(cfg.Chat.SessionTimeoutSeconds) * time.Second)
	h := NewHandler(llmc, &mockSearcher{}, &mockFetcher{data: []byte("img")}, nil,
		testLexicon(), store, fixedPolicy{}, cfg, "write good prompts")
	h.SetBotIdentity("bot-1", "Blizzard")
	return h, store
}

func userMessage(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "in-1",
		ChannelID: "chan-1",
		Content:   content,
		Author:    &discordgo.User{ID: "user-1", Username: "packmate"},
	}}
}
