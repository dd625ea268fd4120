package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"huskybot/pkg/llm"
)

// Assembler accumulates streamed deltas and mirrors them into a single
// Discord message: the first flush creates it, later flushes edit it with
// the full text so far. A flush happens once the unflushed tail exceeds
// flushChars or flushInterval has passed since the last flush.
type Assembler struct {
	flushChars    int
	flushInterval time.Duration
	now           func() time.Time
	create        func(full string) (messageID string, err error)
	edit          func(messageID, full string) error

	full      strings.Builder
	pending   int
	lastFlush time.Time
	messageID string
	err       error
}

func NewAssembler(flushChars int, flushInterval time.Duration, create func(string) (string, error), edit func(string, string) error) *Assembler {
	return &Assembler{
		flushChars:    flushChars,
		flushInterval: flushInterval,
		now:           time.Now,
		create:        create,
		edit:          edit,
	}
}

// Write appends a streamed delta and flushes when a threshold trips.
func (a *Assembler) Write(delta string) {
	if delta == "" {
		return
	}
	a.full.WriteString(delta)
	a.pending += len(delta)

	now := a.now()
	if a.lastFlush.IsZero() {
		a.lastFlush = now
	}
	if a.pending > a.flushChars || now.Sub(a.lastFlush) > a.flushInterval {
		a.flush(now)
	}
}

// Finish flushes any remaining tail and reports the first transport error
// seen during the stream.
func (a *Assembler) Finish() error {
	if a.pending > 0 {
		a.flush(a.now())
	}
	return a.err
}

// MessageID returns the ID of the created message, or "" if no flush has
// succeeded yet.
func (a *Assembler) MessageID() string {
	return a.messageID
}

// Text returns everything written so far.
func (a *Assembler) Text() string {
	return a.full.String()
}

func (a *Assembler) flush(now time.Time) {
	if a.err != nil {
		return
	}
	text := a.full.String()
	if a.messageID == "" {
		id, err := a.create(text)
		if err != nil {
			a.err = err
			return
		}
		a.messageID = id
	} else if err := a.edit(a.messageID, text); err != nil {
		a.err = err
		return
	}
	a.pending = 0
	a.lastFlush = now
}

// streamChatReply generates a conversational reply from recent channel
// history and streams it into the channel. Awakened replies are threaded to
// the triggering message; ambient ones are plain sends after a short delay
// so the interjection does not feel mechanical.
func (h *Handler) streamChatReply(in *inbound, awakened bool) error {
	if !awakened {
		time.Sleep(h.policy.JitterDelay())
	}
	_ = in.s.ChannelTyping(in.channelID)

	transcript := h.channelTranscript(in)

	var system string
	if awakened {
		system = fmt.Sprintf(chatAwakenedSystem, h.botName, in.authorName, in.content)
	} else {
		system = fmt.Sprintf(chatAmbientSystem, h.botName)
	}
	system += "\n\n### Chat log:\n" + transcript

	messages := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf("Now, respond as %s.", h.botName)},
	}

	asm := NewAssembler(
		h.cfg.Stream.FlushChars,
		time.Duration(h.cfg.Stream.FlushIntervalSeconds*float64(time.Second)),
		func(full string) (string, error) {
			var msg *discordgo.Message
			var err error
			if awakened {
				msg, err = in.s.ChannelMessageSendReply(in.channelID, full, in.m.Reference())
			} else {
				msg, err = in.s.ChannelMessageSend(in.channelID, full)
			}
			if err != nil {
				return "", err
			}
			return msg.ID, nil
		},
		func(messageID, full string) error {
			_, err := in.s.ChannelMessageEdit(in.channelID, messageID, full)
			return err
		},
	)

	opts := llm.Options{Temperature: h.cfg.ModelSettings.ChatTemperature}
	err := h.llm.CompleteStream(context.Background(), messages, opts, asm.Write)
	if ferr := asm.Finish(); err == nil {
		err = ferr
	}
	if err != nil {
		log.Printf("Chat stream for user %s failed: %v", in.userID, err)
		if asm.MessageID() != "" {
			if _, eerr := in.s.ChannelMessageEdit(in.channelID, asm.MessageID(), replyChatFailed); eerr != nil {
				log.Printf("Failed to edit partial chat reply: %v", eerr)
			}
		} else if awakened {
			_, _ = in.s.ChannelMessageSend(in.channelID, replyChatFailed)
		}
		return err
	}
	return nil
}

// channelTranscript renders the most recent channel messages, oldest first,
// as "Name: content" lines for the chat prompt.
func (h *Handler) channelTranscript(in *inbound) string {
	limit := h.cfg.Chat.HistoryLimit
	msgs, err := in.s.ChannelMessages(in.channelID, limit, "", "", "")
	if err != nil {
		log.Printf("Failed to fetch channel history for %s: %v", in.channelID, err)
		return fmt.Sprintf("%s: %s", in.authorName, in.content)
	}

	var b strings.Builder
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil || m.Author == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		name := displayName(m.Author)
		if m.Author.ID == h.botID {
			name = h.botName
		}
		fmt.Fprintf(&b, "%s: %s\n", name, m.Content)
	}
	if b.Len() == 0 {
		return fmt.Sprintf("%s: %s", in.authorName, in.content)
	}
	return strings.TrimRight(b.String(), "\n")
}
