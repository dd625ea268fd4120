package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"huskybot/pkg/llm"
	"huskybot/pkg/media"
)

// checkImageNSFW runs the binary adult-content pre-check. Any failure is
// treated as a safe verdict so a flaky model never blocks the pipeline.
func (h *Handler) checkImageNSFW(ctx context.Context, imageURI string) bool {
	resp, err := h.llm.Complete(ctx, []llm.Message{
		{Role: "user", Content: nsfwCheckPrompt, Images: []string{imageURI}},
	}, llm.DefaultOptions())
	if err != nil {
		log.Printf("Warning: NSFW pre-check failed, assuming safe: %v", err)
		return false
	}
	return strings.Contains(strings.ToLower(resp), "yes")
}

// reversePrompt reconstructs the generation prompt of an image and posts it
// in a fenced code block.
func (h *Handler) reversePrompt(in *inbound, imageData []byte) {
	ctx := context.Background()
	_ = in.s.ChannelTyping(in.channelID)

	uri := media.DataURI(imageData)
	nsfw := h.checkImageNSFW(ctx, uri)

	var intro, prompt string
	if nsfw {
		system := fmt.Sprintf(reverseNSFWSystem, h.guide)
		raw, err := h.llm.Complete(ctx, []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: "Reconstruct the prompt for this image.", Images: []string{uri}},
		}, llm.Options{JSONOnly: true, Temperature: h.cfg.ModelSettings.Temperature})
		if err != nil {
			log.Printf("Reverse prompt generation failed for user %s: %v", in.userID, err)
			h.send(in, replyAnalysisFailed)
			return
		}
		var out struct {
			Prompt       string `json:"prompt"`
			ResponseText string `json:"response_text"`
		}
		if jerr := json.Unmarshal([]byte(stripJSONFence(raw)), &out); jerr != nil || out.Prompt == "" {
			out.Prompt = extractFencedBlock(raw)
			out.ResponseText = fallbackNSFWText
		}
		prompt = normalizePrompt(out.Prompt)
		intro = in.mention + " " + out.ResponseText
	} else {
		system := fmt.Sprintf(reverseSafeSystem, h.guide, h.lexicon.ContextSample())
		raw, err := h.llm.Complete(ctx, []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: "Reconstruct the prompt for this image.", Images: []string{uri}},
		}, llm.Options{Temperature: h.cfg.ModelSettings.Temperature})
		if err != nil {
			log.Printf("Reverse prompt generation failed for user %s: %v", in.userID, err)
			h.send(in, replyAnalysisFailed)
			return
		}
		prompt = normalizePrompt(extractFencedBlock(raw))
		intro = fmt.Sprintf(replyReverseIntro, in.mention)
	}

	h.send(in, intro+"\n```\n"+prompt+"\n```")
}

// commentOnImage routes awakened image posts to either the quick commentary
// or the full investigative pipeline.
func (h *Handler) commentOnImage(in *inbound, imageData []byte) {
	uri := media.DataURI(imageData)
	if h.cfg.Investigate.Enabled {
		h.investigate(in, uri)
		return
	}
	h.commentSimple(in, uri)
}

// commentSimple posts a placeholder, asks the model for a two-part
// commentary and replaces the placeholder with the result.
func (h *Handler) commentSimple(in *inbound, uri string) {
	ctx := context.Background()
	placeholder, perr := in.s.ChannelMessageSend(in.channelID, loadingText)
	if perr != nil {
		log.Printf("Failed to send commentary placeholder: %v", perr)
		placeholder = nil
	}

	nsfw := h.checkImageNSFW(ctx, uri)
	system := fmt.Sprintf(commentarySafeSystem, h.botName)
	if nsfw {
		system = fmt.Sprintf(commentaryNSFWSystem, h.botName)
	}

	raw, err := h.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: "Here is the image.", Images: []string{uri}},
	}, llm.Options{JSONOnly: true, Temperature: h.cfg.ModelSettings.Temperature})
	if err != nil {
		log.Printf("Image commentary failed for user %s: %v", in.userID, err)
		h.deliver(in, placeholder, replyAnalysisFailed)
		return
	}

	var out struct {
		Analysis string `json:"analysis"`
		Comment  string `json:"comment"`
	}
	if jerr := json.Unmarshal([]byte(stripJSONFence(raw)), &out); jerr != nil {
		log.Printf("Commentary response was not valid JSON, using fallbacks: %v", jerr)
	}
	if out.Analysis == "" {
		out.Analysis = fallbackAnalysis
	}
	if out.Comment == "" {
		out.Comment = fallbackComment
	}

	if placeholder != nil {
		if derr := in.s.ChannelMessageDelete(in.channelID, placeholder.ID); derr != nil {
			log.Printf("Failed to delete commentary placeholder: %v", derr)
		}
	}
	final := fmt.Sprintf("%s Here's what my keen husky eyes found:\n\n**Analysis**\n%s\n\n**Verdict**\n> %s",
		in.mention, out.Analysis, out.Comment)
	if serr := sendSplitMessage(in.s, in.channelID, final); serr != nil {
		log.Printf("Failed to send commentary to channel %s: %v", in.channelID, serr)
	}
}

// deliver edits text into the placeholder when one exists, falling back to a
// fresh send when the edit fails (e.g. the placeholder was deleted).
func (h *Handler) deliver(in *inbound, placeholder *discordgo.Message, text string) {
	if placeholder != nil {
		_, err := in.s.ChannelMessageEdit(in.channelID, placeholder.ID, text)
		if err == nil {
			return
		}
		if isUnknownMessageErr(err) {
			log.Printf("Placeholder %s is gone, sending fresh message", placeholder.ID)
		} else {
			log.Printf("Failed to edit placeholder %s, sending fresh message: %v", placeholder.ID, err)
		}
	}
	if err := sendSplitMessage(in.s, in.channelID, text); err != nil {
		log.Printf("Failed to deliver message to channel %s: %v", in.channelID, err)
	}
}

// send posts a short reply, logging instead of surfacing transport errors.
func (h *Handler) send(in *inbound, text string) {
	if _, err := in.s.ChannelMessageSend(in.channelID, text); err != nil {
		log.Printf("Failed to send message to channel %s: %v", in.channelID, err)
	}
}
