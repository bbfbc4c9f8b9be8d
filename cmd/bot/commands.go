package main

import (
	"log/slog"

	"guild-leveling-bot/internal/card"
	"guild-leveling-bot/internal/formatting"

	"github.com/bwmarrin/discordgo"
)

var adminOnly = int64(discordgo.PermissionAdministrator)

func themeChoices() []*discordgo.ApplicationCommandOptionChoice {
	names := card.ThemeNames()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  formatting.ThemeLabel(name),
			Value: name,
		})
	}
	return choices
}

func GetApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "level",
			Description: "Check levels and the server leaderboard",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "check",
					Description: "Check your current level and XP",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "member",
							Description: "The member to check (defaults to yourself)",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leaderboard",
					Description: "Show the server XP leaderboard",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "page",
							Description: "The page of the leaderboard to show",
							MinValue:    float64Ptr(1),
						},
					},
				},
			},
		},
		{
			Name:                     "level-admin",
			Description:              "Admin overrides for XP and levels",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "setxp",
					Description: "Set a user's XP directly",
					Options: []*discordgo.ApplicationCommandOption{
						requiredUser("member", "The member to set XP for"),
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "xp",
							Description: "The amount of XP to set",
							Required:    true,
							MinValue:    float64Ptr(0),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "addxp",
					Description: "Add XP to a user",
					Options: []*discordgo.ApplicationCommandOption{
						requiredUser("member", "The member to add XP to"),
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "xp",
							Description: "The amount of XP to add (may be negative)",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "setlevel",
					Description: "Set a user's level",
					Options: []*discordgo.ApplicationCommandOption{
						requiredUser("member", "The member to set the level for"),
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "level",
							Description: "The level to set",
							Required:    true,
							MinValue:    float64Ptr(0),
						},
					},
				},
			},
		},
		{
			Name:        "level-role",
			Description: "Manage role rewards",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a role reward for reaching a specific level",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "level",
							Description: "The level at which to award the role",
							Required:    true,
							MinValue:    float64Ptr(1),
						},
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "The role to award",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a role reward",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "level",
							Description: "The level to remove the role reward from",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List all role rewards",
				},
			},
		},
		{
			Name:                     "level-settings",
			Description:              "Leveling system settings",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "xprate",
					Description: "Change the XP gain rate",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "min_xp",
							Description: "Minimum XP to award",
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "max_xp",
							Description: "Maximum XP to award",
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "cooldown",
							Description: "Cooldown in seconds between XP awards",
							MinValue:    float64Ptr(0),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "toggleleveling",
					Description: "Enable or disable the leveling system",
					Options:     []*discordgo.ApplicationCommandOption{requiredBool("enabled", "Whether leveling is enabled")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "togglemessages",
					Description: "Enable or disable level-up messages",
					Options:     []*discordgo.ApplicationCommandOption{requiredBool("enabled", "Whether level-up messages are enabled")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "levelupchannel",
					Description: "Set the channel for level-up messages",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "The channel for level-up messages, omit to use the triggering channel",
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildText,
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "setmessage",
					Description: "Set a custom level-up message",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "level",
							Description: "Level for this message (0 for the default)",
							Required:    true,
							MinValue:    float64Ptr(0),
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "message",
							Description: "Template: {user}, {level}, {server}",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clearmessage",
					Description: "Clear a custom level-up message",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "level",
							Description: "Level to clear the message for (0 for the default)",
							Required:    true,
							MinValue:    float64Ptr(0),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "listmessages",
					Description: "List all custom level-up messages",
				},
			},
		},
		{
			Name:        "level-card",
			Description: "Level card commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Show your level card or another user's",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "member",
							Description: "Member to show the card for",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "theme",
							Description: "Card theme",
							Choices:     themeChoices(),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "background",
					Description: "Set a custom background for your level card",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "image_url",
							Description: "Image URL (PNG/JPG, <8MB). Omit to reset.",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "resetbackgrounds",
					Description: "Reset all custom card backgrounds (Admin only)",
				},
			},
		},
		{
			Name:                     "level-advanced",
			Description:              "Maintenance operations for the leveling system",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "diagnose",
					Description: "Detect and fix malformed leveling data",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "backup",
					Description: "Create a backup of all leveling data",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "resetuser",
					Description: "Reset a user's level and XP",
					Options:     []*discordgo.ApplicationCommandOption{requiredUser("member", "The member to reset")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "resetall",
					Description: "Reset all leveling data on this server",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "confirm",
					Description: "Confirm a pending reset",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "token",
							Description: "The confirmation token from the reset prompt",
							Required:    true,
						},
					},
				},
			},
		},
	}
}

func requiredUser(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    true,
	}
}

func requiredBool(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionBoolean,
		Name:        name,
		Description: description,
		Required:    true,
	}
}

func float64Ptr(v float64) *float64 { return &v }

func RegisterCommands(registrar CommandRegistrar, commands []*discordgo.ApplicationCommand, userID, guildID string) []*discordgo.ApplicationCommand {
	registeredCommands := make([]*discordgo.ApplicationCommand, len(commands))

	for i, cmd := range commands {
		registered, err := registrar.ApplicationCommandCreate(userID, guildID, cmd)
		if err != nil {
			slog.Error("Cannot create command", "name", cmd.Name, "error", err)
			continue
		}
		registeredCommands[i] = registered
		slog.Info("Registered command", "name", cmd.Name)
	}

	return registeredCommands
}

func CleanupCommands(registrar CommandRegistrar, commands []*discordgo.ApplicationCommand, userID, guildID string) {
	for _, cmd := range commands {
		if cmd == nil {
			continue
		}
		err := registrar.ApplicationCommandDelete(userID, guildID, cmd.ID)
		if err != nil {
			slog.Error("Cannot delete command", "name", cmd.Name, "error", err)
		}
	}
}
