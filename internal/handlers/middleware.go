package handlers

import (
	"guild-leveling-bot/internal/formatting"

	"github.com/bwmarrin/discordgo"
)

type Middleware func(CommandHandler) CommandHandler

func WithAdmin(next CommandHandler) CommandHandler {
	return func(s DiscordSession, i *discordgo.InteractionCreate) {
		if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
			respond(s, i, formatting.MsgAdminRequired, true)
			return
		}
		next(s, i)
	}
}

// isAdmin reports whether the invoking member has administrator
// permissions, for handlers that gate only some of their subcommands.
func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// WithGuild rejects invocations outside a guild (DMs have no leveling
// state to act on).
func WithGuild(next CommandHandler) CommandHandler {
	return func(s DiscordSession, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			respond(s, i, formatting.MsgGuildOnly, true)
			return
		}
		next(s, i)
	}
}
