package handlers

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// MessageCreateHandler feeds inbound guild messages to the leveling
// engine and delivers the announcement when a level-up comes back.
func (h *BotHandler) MessageCreateHandler() func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.GuildID == "" || m.Content == "" {
			return
		}

		event, err := h.Engine.OnMessage(context.Background(), m.GuildID, m.Author.ID)
		if err != nil {
			slog.Error("Failed to process message for leveling", "guild_id", m.GuildID, "user_id", m.Author.ID, "error", err)
			return
		}
		if event == nil || !event.Announce {
			return
		}

		channelID := event.AnnounceChannel
		if channelID == "" {
			channelID = m.ChannelID
		}

		if err := h.Notify.SendMessage(channelID, event.Message); err != nil {
			slog.Error("Failed to announce level up", "guild_id", m.GuildID, "channel_id", channelID, "error", err)
		}
	}
}
