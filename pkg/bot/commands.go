package bot

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"huskybot/pkg/session"
)

// handleTagDirectory lists the lexicon categories and parks the user in a
// category-selection state.
func (h *Handler) handleTagDirectory(in *inbound) {
	cats := h.lexicon.Categories()
	if len(cats) == 0 {
		h.send(in, replyLexiconMissing)
		return
	}

	var b strings.Builder
	b.WriteString("**Tag ledger categories:**\n")
	for i, c := range cats {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	b.WriteString("\n")
	b.WriteString(replyCategoryPrompt)

	h.sessions.Create(in.userID, session.StateAwaitingCategory)
	h.send(in, b.String())
}

// handleCategoryChoice resolves a pending category selection by index or by
// full name. An invalid choice keeps the state so the user can retry.
func (h *Handler) handleCategoryChoice(in *inbound) {
	cats := h.lexicon.Categories()

	choice := strings.TrimSpace(in.content)
	var category string
	if idx, err := strconv.Atoi(choice); err == nil {
		if idx >= 1 && idx <= len(cats) {
			category = cats[idx-1]
		}
	} else {
		for _, c := range cats {
			if strings.EqualFold(c, choice) {
				category = c
				break
			}
		}
	}

	if category == "" {
		h.sessions.Touch(in.userID)
		h.send(in, replyCategoryInvalid)
		return
	}

	h.sessions.Delete(in.userID)
	h.sendCategoryListing(in, category)
}

// sendCategoryListing prints every term in a category, paging well under
// Discord's message length limit.
func (h *Handler) sendCategoryListing(in *inbound, category string) {
	const pageLimit = 1900

	entries := h.lexicon.Entries(category)
	if len(entries) == 0 {
		h.send(in, fmt.Sprintf("Category **%s** is empty. Odd, I could have sworn I buried something there.", category))
		return
	}

	header := fmt.Sprintf("**%s** (%d tags):\n", category, len(entries))
	var b strings.Builder
	b.WriteString(header)
	for _, e := range entries {
		line := fmt.Sprintf("`%s`", e.Term)
		if e.Translation != "" {
			line += " - " + e.Translation
		}
		line += "\n"
		if b.Len()+len(line) > pageLimit {
			h.send(in, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		h.send(in, b.String())
	}
}

// handleChatToggle flips the ambient-chatter switch.
func (h *Handler) handleChatToggle(in *inbound, enabled bool) {
	h.chatEnabled.Store(enabled)
	log.Printf("Ambient chat toggled to %v by user %s", enabled, in.userID)
	if enabled {
		h.send(in, replyChatOn)
	} else {
		h.send(in, replyChatOff)
	}
}

// handleCancel clears a pending category selection. Outside that state the
// word is just conversation and falls through to the other rules.
func (h *Handler) handleCancel(in *inbound) {
	h.sessions.Delete(in.userID)
	h.send(in, replyCanceled)
}
