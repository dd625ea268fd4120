package bot

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// GuildMemberAdd is the discordgo handler entry point for member joins.
func (h *Handler) GuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	h.HandleMemberJoin(&DiscordSession{s}, m)
}

// HandleMemberJoin greets a new member in the guild's welcome channel.
func (h *Handler) HandleMemberJoin(s Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}

	channelID := findWelcomeChannel(s, m.GuildID)
	if channelID == "" {
		log.Printf("No welcome channel found in guild %s, skipping greeting", m.GuildID)
		return
	}

	greeting := fmt.Sprintf(welcomeMessage, m.User.Mention())
	if err := sendSplitMessage(s, channelID, greeting); err != nil {
		log.Printf("Failed to send welcome message in guild %s: %v", m.GuildID, err)
	}
}

// findWelcomeChannel picks the first text channel whose name suggests a
// welcome or general channel.
func findWelcomeChannel(s Session, guildID string) string {
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		log.Printf("Failed to list channels for guild %s: %v", guildID, err)
		return ""
	}
	for _, c := range channels {
		if c == nil || c.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		name := strings.ToLower(c.Name)
		if strings.Contains(name, "welcome") || strings.Contains(name, "general") {
			return c.ID
		}
	}
	return ""
}
