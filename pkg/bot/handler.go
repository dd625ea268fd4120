package bot

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"huskybot/pkg/config"
	"huskybot/pkg/lexicon"
	"huskybot/pkg/session"
)

// inbound bundles an incoming message with the derived fields every rule
// needs.
type inbound struct {
	s          Session
	m          *discordgo.MessageCreate
	content    string
	lower      string
	userID     string
	channelID  string
	mention    string
	authorName string
}

// routeRule is one entry in the ordered message router. The first rule
// whose match fires handles the message; nothing falls through past it.
type routeRule struct {
	name   string
	match  func(h *Handler, in *inbound) bool
	handle func(h *Handler, in *inbound)
}

// Handler owns all message routing and the per-user conversation state.
type Handler struct {
	llm      LLMClient
	searcher Searcher
	fetcher  ImageFetcher
	cache    SearchCache
	lexicon  *lexicon.Index
	sessions *session.Store
	policy   ResponsePolicy
	cfg      *config.Config
	guide    string

	botID   string
	botName string

	chatEnabled atomic.Bool

	processingMu    sync.Mutex
	processingUsers map[string]bool

	rules []routeRule
}

// NewHandler wires a Handler. cache may be nil to disable search caching;
// guide is the prompt-writing guide text injected into generation prompts.
func NewHandler(llmClient LLMClient, searcher Searcher, fetcher ImageFetcher, searchCache SearchCache, lex *lexicon.Index, sessions *session.Store, policy ResponsePolicy, cfg *config.Config, guide string) *Handler {
	h := &Handler{
		llm:             llmClient,
		searcher:        searcher,
		fetcher:         fetcher,
		cache:           searchCache,
		lexicon:         lex,
		sessions:        sessions,
		policy:          policy,
		cfg:             cfg,
		guide:           guide,
		processingUsers: make(map[string]bool),
	}
	h.chatEnabled.Store(cfg.Chat.Enabled)
	h.rules = buildRoutes()
	return h
}

// SetBotIdentity records the bot's own user ID and display name once the
// gateway session is ready.
func (h *Handler) SetBotIdentity(id, name string) {
	h.botID = id
	h.botName = name
}

// MessageCreate is the discordgo handler entry point.
func (h *Handler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	go h.HandleMessage(&DiscordSession{s}, m)
}

// HandleMessage routes one message through the rule table.
func (h *Handler) HandleMessage(s Session, m *discordgo.MessageCreate) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic while handling message %s: %v", m.ID, r)
		}
	}()

	if m.Author == nil || m.Author.ID == h.botID || m.Author.Bot {
		return
	}

	userID := m.Author.ID
	h.processingMu.Lock()
	if h.processingUsers[userID] {
		h.processingMu.Unlock()
		log.Printf("User %s already has a message in flight, dropping", userID)
		return
	}
	h.processingUsers[userID] = true
	h.processingMu.Unlock()
	defer func() {
		h.processingMu.Lock()
		delete(h.processingUsers, userID)
		h.processingMu.Unlock()
	}()

	if h.sessions.ExpireIfIdle(userID) {
		log.Printf("Session for user %s expired, treating message as fresh", userID)
	}

	content := strings.TrimSpace(m.Content)
	in := &inbound{
		s:          s,
		m:          m,
		content:    content,
		lower:      strings.ToLower(content),
		userID:     userID,
		channelID:  m.ChannelID,
		mention:    m.Author.Mention(),
		authorName: displayName(m.Author),
	}

	for _, rule := range h.rules {
		if rule.match(h, in) {
			rule.handle(h, in)
			return
		}
	}
}

// buildRoutes returns the router table. Order is the contract: control
// commands first, then the explicit generation commands, then wake and
// session handling, with the ambient fallbacks last.
func buildRoutes() []routeRule {
	return []routeRule{
		{
			name:   "tag-directory",
			match:  func(h *Handler, in *inbound) bool { return in.lower == cmdTagDirectory },
			handle: func(h *Handler, in *inbound) { h.handleTagDirectory(in) },
		},
		{
			name:   "chat-on",
			match:  func(h *Handler, in *inbound) bool { return in.lower == cmdChatOn },
			handle: func(h *Handler, in *inbound) { h.handleChatToggle(in, true) },
		},
		{
			name:   "chat-off",
			match:  func(h *Handler, in *inbound) bool { return in.lower == cmdChatOff },
			handle: func(h *Handler, in *inbound) { h.handleChatToggle(in, false) },
		},
		{
			name: "category-cancel",
			match: func(h *Handler, in *inbound) bool {
				return in.lower == cmdCancel && h.inState(in.userID, session.StateAwaitingCategory)
			},
			handle: func(h *Handler, in *inbound) { h.handleCancel(in) },
		},
		{
			name: "category-choice",
			match: func(h *Handler, in *inbound) bool {
				return h.inState(in.userID, session.StateAwaitingCategory)
			},
			handle: func(h *Handler, in *inbound) { h.handleCategoryChoice(in) },
		},
		{
			name:   "reverse-prompt",
			match:  func(h *Handler, in *inbound) bool { return in.lower == cmdReverse },
			handle: func(h *Handler, in *inbound) { h.handleReverse(in) },
		},
		{
			name: "draw",
			match: func(h *Handler, in *inbound) bool {
				return in.lower == cmdDrawBare || strings.HasPrefix(in.lower, cmdDrawPrefix)
			},
			handle: func(h *Handler, in *inbound) { h.handleDraw(in) },
		},
		{
			name:   "wake",
			match:  func(h *Handler, in *inbound) bool { return h.isWake(in) },
			handle: func(h *Handler, in *inbound) { h.handleWake(in) },
		},
		{
			name: "active-session",
			match: func(h *Handler, in *inbound) bool {
				return h.inState(in.userID, session.StateChatting)
			},
			handle: func(h *Handler, in *inbound) { h.handleChatTurn(in) },
		},
		{
			name: "image-compliment",
			match: func(h *Handler, in *inbound) bool {
				return firstImageAttachment(in.m.Message) != nil
			},
			handle: func(h *Handler, in *inbound) { h.handleImageCompliment(in) },
		},
		{
			name: "ambient-chat",
			match: func(h *Handler, in *inbound) bool {
				return h.chatEnabled.Load() && in.content != "" &&
					h.policy.ShouldRespond(h.cfg.Chat.Probability)
			},
			handle: func(h *Handler, in *inbound) {
				_ = h.streamChatReply(in, false)
			},
		},
	}
}

func (h *Handler) inState(userID string, state session.State) bool {
	sess, ok := h.sessions.Get(userID)
	return ok && sess.State == state
}

// isWake reports whether the message summons the bot: a direct @mention
// that is not itself a reply, or the bot's name appearing in the text.
func (h *Handler) isWake(in *inbound) bool {
	if h.inState(in.userID, session.StateChatting) {
		return false
	}
	for _, u := range in.m.Mentions {
		if u != nil && u.ID == h.botID && in.m.MessageReference == nil {
			return true
		}
	}
	return h.botName != "" && strings.Contains(in.content, h.botName)
}

// handleWake answers a summons. An attached image (directly or on the
// replied-to message) gets commentary without opening a session; plain text
// opens a chat session and answers the first turn.
func (h *Handler) handleWake(in *inbound) {
	target := in.m.Message
	if in.m.MessageReference != nil {
		if ref, err := in.s.ChannelMessage(in.m.MessageReference.ChannelID, in.m.MessageReference.MessageID); err == nil {
			target = ref
		} else {
			log.Printf("Failed to fetch referenced message for wake: %v", err)
		}
	}

	if att := firstImageAttachment(target); att != nil {
		data, err := h.fetcher.Download(context.Background(), att.URL)
		if err != nil {
			log.Printf("Failed to download image %s: %v", att.URL, err)
			h.send(in, replyFetchFailed)
			return
		}
		h.commentOnImage(in, data)
		return
	}

	h.sessions.Create(in.userID, session.StateChatting)
	h.runChatTurn(in)
}

// handleChatTurn serves a message inside an open chat session.
func (h *Handler) handleChatTurn(in *inbound) {
	if exitKeywords[in.lower] {
		h.sessions.Delete(in.userID)
		h.send(in, replyFarewell)
		return
	}
	h.runChatTurn(in)
}

// runChatTurn produces one streamed reply and advances the session budget.
// The session ends after the configured number of replies, or immediately
// on an unrecoverable stream error.
func (h *Handler) runChatTurn(in *inbound) {
	sess, ok := h.sessions.Get(in.userID)
	if !ok {
		return
	}
	if h.sessions.Expired(sess) {
		h.sessions.Delete(in.userID)
		return
	}
	final := sess.TurnsUsed >= h.cfg.Chat.TurnBudget-1

	if err := h.streamChatReply(in, true); err != nil {
		h.sessions.Delete(in.userID)
		return
	}

	if final {
		h.send(in, replyClosingNotice)
		h.sessions.Delete(in.userID)
		return
	}
	h.sessions.Touch(in.userID)
	h.sessions.IncrementTurn(in.userID)
}

// handleReverse resolves the image behind a `reverse` command: an attachment
// on the command message itself, or on the message it replies to.
func (h *Handler) handleReverse(in *inbound) {
	h.sessions.Delete(in.userID)

	att := firstImageAttachment(in.m.Message)
	if att == nil {
		if in.m.MessageReference == nil {
			h.send(in, replyReverseUsage)
			return
		}
		target, err := in.s.ChannelMessage(in.m.MessageReference.ChannelID, in.m.MessageReference.MessageID)
		if err != nil {
			log.Printf("Failed to fetch referenced message %s: %v", in.m.MessageReference.MessageID, err)
			h.send(in, replyReferenceMissing)
			return
		}
		if att = firstImageAttachment(target); att == nil {
			h.send(in, replyImageMissing)
			return
		}
	}

	data, err := h.fetcher.Download(context.Background(), att.URL)
	if err != nil {
		log.Printf("Failed to download image %s: %v", att.URL, err)
		h.send(in, replyFetchFailed)
		return
	}
	h.reversePrompt(in, data)
}

// handleDraw parses the idea text out of a `draw ...` command.
func (h *Handler) handleDraw(in *inbound) {
	h.sessions.Delete(in.userID)

	idea := strings.TrimSpace(in.content[len(cmdDrawBare):])
	if idea == "" {
		h.send(in, replyDrawUsage)
		return
	}
	h.generateArtPrompt(in, idea)
}

// handleImageCompliment reacts to an unsolicited image with a random bit of
// praise.
func (h *Handler) handleImageCompliment(in *inbound) {
	compliment := imageCompliments[rand.Intn(len(imageCompliments))]
	h.send(in, in.mention+" "+compliment)
}
