package handlers

import (
	"bytes"

	"github.com/bwmarrin/discordgo"
)

func respond(s DiscordSession, i *discordgo.InteractionCreate, msg string, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   flags,
		},
	})
}

func respondEmbed(s DiscordSession, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondFile(s DiscordSession, i *discordgo.InteractionCreate, msg, filename string, content []byte, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   flags,
			Files: []*discordgo.File{
				{Name: filename, Reader: bytes.NewReader(content)},
			},
		},
	})
}

// subcommand unpacks the invoked subcommand name and its options.
func subcommand(i *discordgo.InteractionCreate) (string, []*discordgo.ApplicationCommandInteractionDataOption) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 || options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", nil
	}
	return options[0].Name, options[0].Options
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// resolvedUserID extracts a user-typed option's ID, falling back to the
// invoker when the option is absent.
func resolvedUserID(i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.UserValue(nil).ID
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	return ""
}

// displayName picks the best available name for a user ID from the
// interaction's resolved data.
func displayName(i *discordgo.InteractionCreate, userID string) string {
	if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
		if user, ok := resolved.Users[userID]; ok {
			return user.Username
		}
	}
	if i.Member != nil && i.Member.User != nil && i.Member.User.ID == userID {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		return i.Member.User.Username
	}
	return userID
}

// avatarURL returns the resolved user's avatar, if the interaction
// carried one.
func avatarURL(i *discordgo.InteractionCreate, userID string) string {
	if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
		if user, ok := resolved.Users[userID]; ok {
			return user.AvatarURL("128")
		}
	}
	if i.Member != nil && i.Member.User != nil && i.Member.User.ID == userID {
		return i.Member.User.AvatarURL("128")
	}
	return ""
}
