package main

import "github.com/bwmarrin/discordgo"

// CommandRegistrar is the slice of the Discord session used to install
// and remove the slash commands at startup and shutdown.
type CommandRegistrar interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}
