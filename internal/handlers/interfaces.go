package handlers

import "github.com/bwmarrin/discordgo"

// DiscordSession defines the interface for Discord API operations needed
// by handlers. This interface allows for testing with mocked sessions.
type DiscordSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Notifier delivers level-up announcements; the Discord adapter
// implements it.
type Notifier interface {
	SendMessage(channelID, content string) error
}
