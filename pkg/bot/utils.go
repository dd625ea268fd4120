package bot

import (
	"errors"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"huskybot/pkg/media"
)

var fencedBlockRe = regexp.MustCompile("(?s)```[^\n]*\n?(.*?)```")

// extractFencedBlock returns the contents of the first fenced code block in
// text. When no block is present the whole trimmed text is returned, so a
// model that forgets the fence still yields a usable prompt.
func extractFencedBlock(text string) string {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// normalizePrompt flattens underscore-joined tags into plain words.
func normalizePrompt(prompt string) string {
	return strings.TrimSpace(strings.ReplaceAll(prompt, "_", " "))
}

// stripJSONFence removes markdown fencing some models wrap around JSON
// responses even when a JSON response format was requested.
func stripJSONFence(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// firstImageAttachment returns the first attachment whose filename looks
// like an image, or nil.
func firstImageAttachment(m *discordgo.Message) *discordgo.MessageAttachment {
	if m == nil {
		return nil
	}
	for _, a := range m.Attachments {
		if a != nil && media.IsImageFilename(a.Filename) {
			return a
		}
	}
	return nil
}

// isUnknownMessageErr reports whether an API error means the target message
// no longer exists, e.g. a placeholder someone deleted mid-edit.
func isUnknownMessageErr(err error) bool {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) {
		return rerr.Message != nil && rerr.Message.Code == discordgo.ErrCodeUnknownMessage
	}
	return false
}

// displayName prefers the global display name over the account username.
func displayName(u *discordgo.User) string {
	if u == nil {
		return "someone"
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// sendSplitMessage sends content to a channel, splitting on paragraph
// boundaries when it exceeds Discord's message length limit.
func sendSplitMessage(s Session, channelID, content string) error {
	const maxLen = 1900
	if len(content) <= maxLen {
		_, err := s.ChannelMessageSend(channelID, content)
		return err
	}

	paragraphs := strings.Split(content, "\n\n")
	var current string
	for _, p := range paragraphs {
		candidate := p
		if current != "" {
			candidate = current + "\n\n" + p
		}
		if len(candidate) > maxLen && current != "" {
			if _, err := s.ChannelMessageSend(channelID, current); err != nil {
				return err
			}
			current = p
			continue
		}
		current = candidate
	}
	if current != "" {
		if _, err := s.ChannelMessageSend(channelID, current); err != nil {
			return err
		}
	}
	return nil
}
