package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"huskybot/pkg/llm"
)

// containsNSFWKeyword reports whether a draw idea trips the adult-content
// keyword heuristic.
func containsNSFWKeyword(idea string) bool {
	lower := strings.ToLower(idea)
	for _, kw := range nsfwTextKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// generateArtPrompt expands a plain-language idea into a full generation
// prompt and posts it in a fenced code block.
func (h *Handler) generateArtPrompt(in *inbound, idea string) {
	_ = in.s.ChannelTyping(in.channelID)

	system := fmt.Sprintf(drawSafeSystem, h.guide)
	if containsNSFWKeyword(idea) {
		system = fmt.Sprintf(drawNSFWSystem, h.guide)
	}

	raw, err := h.llm.Complete(context.Background(), []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: idea},
	}, llm.Options{Temperature: h.cfg.ModelSettings.Temperature})
	if err != nil {
		log.Printf("Prompt generation failed for user %s: %v", in.userID, err)
		h.send(in, replyAnalysisFailed)
		return
	}

	prompt := normalizePrompt(extractFencedBlock(raw))
	intro := fmt.Sprintf(replyDrawIntro, in.mention)
	h.send(in, intro+"\n```\n"+prompt+"\n```")
}
