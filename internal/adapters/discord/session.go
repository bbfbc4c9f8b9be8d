package discord

import (
	"log/slog"

	"guild-leveling-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		slog.Error("Failed to create discord session", "error", err)
		return nil, err
	}

	// MessageContent is a privileged intent; without it the gateway
	// strips Content from MESSAGE_CREATE and no message ever earns XP.
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent
	session.State.TrackMembers = true
	session.State.TrackRoles = true
	session.State.TrackChannels = true

	return session, nil
}
