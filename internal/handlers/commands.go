package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"guild-leveling-bot/internal/card"
	"guild-leveling-bot/internal/config"
	"guild-leveling-bot/internal/core/domain"
	"guild-leveling-bot/internal/core/services/leveling"
	"guild-leveling-bot/internal/formatting"

	"github.com/bwmarrin/discordgo"
)

const leaderboardPerPage = 10

type BotHandler struct {
	Config *config.Config
	Engine *leveling.Engine
	Cards  *card.Renderer
	Notify Notifier
}

func ReadyHandler(session *discordgo.Session, ready *discordgo.Ready) {
	slog.Info("Guild Leveling Bot is online!", "user", session.State.User.Username)
}

// Level handles /level check and /level leaderboard.
func (h *BotHandler) Level(s DiscordSession, i *discordgo.InteractionCreate) {
	sub, options := subcommand(i)
	opts := optionMap(options)

	switch sub {
	case "check":
		h.levelCheck(s, i, opts)
	case "leaderboard":
		h.leaderboard(s, i, opts)
	}
}

func (h *BotHandler) levelCheck(s DiscordSession, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	userID := resolvedUserID(i, opts, "member")

	profile, err := h.Engine.Profile(i.GuildID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		respond(s, i, fmt.Sprintf("%s hasn't earned any XP yet!", formatting.Mention(userID)), true)
		return
	}

	floor := leveling.XPForLevel(profile.Level)
	ceil := leveling.XPForLevel(profile.Level + 1)
	current, span := card.Progress(profile.XP, floor, ceil)

	barLength := 20
	filled := int(int64(barLength) * current / span)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled)

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s's Level", displayName(i, userID)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Level", Value: fmt.Sprintf("`%d`", profile.Level), Inline: true},
			{Name: "Total XP", Value: fmt.Sprintf("`%d`", profile.XP), Inline: true},
			{Name: "Progress", Value: fmt.Sprintf("`%d / %d` XP to Level %d", current, span, profile.Level+1)},
			{Name: "Level Progress", Value: fmt.Sprintf("`%s`", bar)},
		},
	}
	respondEmbed(s, i, embed)
}

func (h *BotHandler) leaderboard(s DiscordSession, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	page := 1
	if opt, ok := opts["page"]; ok {
		page = int(opt.IntValue())
	}

	entries, totalPages, err := h.Engine.Leaderboard(i.GuildID, page, leaderboardPerPage)
	if errors.Is(err, domain.ErrNotFound) {
		respond(s, i, formatting.MsgNoXPData, true)
		return
	}
	if err != nil {
		respond(s, i, err.Error(), true)
		return
	}

	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "**%d.** %s\n   Level: `%d` | XP: `%d`\n",
			entry.Rank, formatting.Mention(entry.UserID), entry.Level, entry.XP)
	}

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🏆 XP Leaderboard",
		Description: fmt.Sprintf("Page %d/%d", page, totalPages),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rankings", Value: b.String()},
		},
	})
}

// Admin handles /level-admin setxp, addxp and setlevel.
func (h *BotHandler) Admin(s DiscordSession, i *discordgo.InteractionCreate) {
	sub, options := subcommand(i)
	opts := optionMap(options)
	ctx := context.Background()

	userID := resolvedUserID(i, opts, "member")
	if userID == "" {
		respond(s, i, "Member is required.", true)
		return
	}

	var (
		event *domain.LevelUpEvent
		err   error
		reply string
	)

	switch sub {
	case "setxp":
		xp := opts["xp"].IntValue()
		event, err = h.Engine.SetXP(ctx, i.GuildID, userID, xp)
		if err == nil {
			reply = formatting.MsgXPSet(userID, xp, event.NewLevel)
		}
	case "addxp":
		delta := opts["xp"].IntValue()
		event, err = h.Engine.AddXP(ctx, i.GuildID, userID, delta)
		if err == nil {
			reply = formatting.MsgXPAdded(userID, delta, event.NewLevel)
		}
	case "setlevel":
		level := int(opts["level"].IntValue())
		event, err = h.Engine.SetLevel(ctx, i.GuildID, userID, level)
		if err == nil {
			profile, _ := h.Engine.Profile(i.GuildID, userID)
			reply = formatting.MsgLevelSet(userID, event.NewLevel, profile.XP)
		}
	default:
		return
	}

	if err != nil {
		respond(s, i, err.Error(), true)
		return
	}

	if len(event.Failed) > 0 {
		reply += "\n" + formatting.MsgRoleFailures(len(event.Failed))
	}
	respond(s, i, reply, false)
}

// Role handles /level-role add, remove and list.
func (h *BotHandler) Role(s DiscordSession, i *discordgo.InteractionCreate) {
	sub, options := subcommand(i)
	opts := optionMap(options)

	// list is open to everyone; mutation needs admin
	if (sub == "add" || sub == "remove") && !isAdmin(i) {
		respond(s, i, formatting.MsgAdminRequired, true)
		return
	}

	switch sub {
	case "add":
		level := int(opts["level"].IntValue())
		roleID := opts["role"].RoleValue(nil, "").ID
		if err := h.Engine.AddReward(i.GuildID, level, roleID); err != nil {
			respond(s, i, err.Error(), true)
			return
		}
		respond(s, i, formatting.MsgRewardAdded(roleID, level), true)

	case "remove":
		level := int(opts["level"].IntValue())
		roleID, err := h.Engine.RemoveReward(i.GuildID, level)
		if errors.Is(err, domain.ErrNotFound) {
			respond(s, i, fmt.Sprintf("There is no role reward set for level %d.", level), true)
			return
		}
		respond(s, i, formatting.MsgRewardRemoved(roleID, level), true)

	case "list":
		table := h.Engine.Rewards(i.GuildID)
		if len(table) == 0 {
			respond(s, i, formatting.MsgNoRewards, true)
			return
		}

		thresholds := make([]int, 0, len(table))
		for threshold := range table {
			thresholds = append(thresholds, threshold)
		}
		sort.Ints(thresholds)

		var b strings.Builder
		for _, threshold := range thresholds {
			fmt.Fprintf(&b, "**Level %d:** %s\n", threshold, formatting.RoleMention(table[threshold]))
		}

		respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "📜 Level Role Rewards",
			Description: "Roles automatically assigned at specific levels:",
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Configured Rewards", Value: b.String()},
			},
		})
	}
}

// Settings handles the /level-settings subcommands.
func (h *BotHandler) Settings(s DiscordSession, i *discordgo.InteractionCreate) {
	sub, options := subcommand(i)
	opts := optionMap(options)

	switch sub {
	case "xprate":
		settings := h.Engine.Settings(i.GuildID)
		xpMin, xpMax, cooldown := settings.XPMin, settings.XPMax, settings.CooldownSeconds
		if opt, ok := opts["min_xp"]; ok {
			xpMin = int(opt.IntValue())
		}
		if opt, ok := opts["max_xp"]; ok {
			xpMax = int(opt.IntValue())
		}
		if opt, ok := opts["cooldown"]; ok {
			cooldown = int(opt.IntValue())
		}
		if err := h.Engine.SetXPRate(i.GuildID, xpMin, xpMax, cooldown); err != nil {
			respond(s, i, err.Error(), true)
			return
		}
		respond(s, i, formatting.MsgXPRate(xpMin, xpMax, cooldown), true)

	case "toggleleveling":
		enabled := opts["enabled"].BoolValue()
		h.Engine.SetEnabled(i.GuildID, enabled)
		if enabled {
			respond(s, i, formatting.MsgLevelingOn, false)
		} else {
			respond(s, i, formatting.MsgLevelingOff, false)
		}

	case "togglemessages":
		enabled := opts["enabled"].BoolValue()
		h.Engine.SetAnnouncements(i.GuildID, enabled)
		if enabled {
			respond(s, i, formatting.MsgAnnouncementsOn, true)
		} else {
			respond(s, i, formatting.MsgAnnouncementsOff, true)
		}

	case "levelupchannel":
		channelID := ""
		if opt, ok := opts["channel"]; ok {
			channelID = opt.ChannelValue(nil).ID
		}
		if err := h.Engine.SetAnnouncementChannel(i.GuildID, channelID); err != nil {
			respond(s, i, err.Error(), true)
			return
		}
		if channelID == "" {
			respond(s, i, "Level-up messages will be sent in the channel where the level-up happened.", true)
		} else {
			respond(s, i, fmt.Sprintf("Level-up messages will be sent in <#%s>.", channelID), true)
		}

	case "setmessage":
		threshold := int(opts["level"].IntValue())
		message := opts["message"].StringValue()
		if err := h.Engine.SetTemplate(i.GuildID, threshold, message); err != nil {
			respond(s, i, err.Error(), true)
			return
		}
		if threshold == 0 {
			respond(s, i, "Default level-up message updated.", true)
		} else {
			respond(s, i, fmt.Sprintf("Level-up message for level %d updated.", threshold), true)
		}

	case "clearmessage":
		threshold := int(opts["level"].IntValue())
		if err := h.Engine.ClearTemplate(i.GuildID, threshold); errors.Is(err, domain.ErrNotFound) {
			respond(s, i, fmt.Sprintf("No custom message is set for level %d.", threshold), true)
			return
		}
		respond(s, i, fmt.Sprintf("Cleared the level-up message for level %d.", threshold), true)

	case "listmessages":
		templates := h.Engine.Templates(i.GuildID)
		if len(templates) == 0 {
			respond(s, i, "No custom level-up messages are set. The default is:\n> "+formatting.DefaultLevelUpTemplate, true)
			return
		}

		thresholds := make([]int, 0, len(templates))
		for threshold := range templates {
			thresholds = append(thresholds, threshold)
		}
		sort.Ints(thresholds)

		var b strings.Builder
		for _, threshold := range thresholds {
			label := fmt.Sprintf("Level %d", threshold)
			if threshold == 0 {
				label = "Default"
			}
			fmt.Fprintf(&b, "**%s:** %s\n", label, templates[threshold])
		}
		respond(s, i, b.String(), true)
	}
}

// Card handles /level-card show, background and resetbackgrounds.
func (h *BotHandler) Card(s DiscordSession, i *discordgo.InteractionCreate) {
	sub, options := subcommand(i)
	opts := optionMap(options)

	switch sub {
	case "show":
		h.cardShow(s, i, opts)
	case "background":
		h.cardBackground(s, i, opts)
	case "resetbackgrounds":
		h.cardResetBackgrounds(s, i)
	}
}

func (h *BotHandler) cardShow(s DiscordSession, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	userID := resolvedUserID(i, opts, "member")

	profile, err := h.Engine.Profile(i.GuildID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		respond(s, i, fmt.Sprintf("%s hasn't earned any XP yet!", formatting.Mention(userID)), true)
		return
	}

	rank, _ := h.Engine.Rank(i.GuildID, userID)

	data := card.Data{
		Username:   displayName(i, userID),
		Level:      profile.Level,
		Rank:       rank,
		XP:         profile.XP,
		LevelFloor: leveling.XPForLevel(profile.Level),
		LevelCeil:  leveling.XPForLevel(profile.Level + 1),
	}
	if opt, ok := opts["theme"]; ok {
		theme, known := card.ThemeByName(opt.StringValue())
		if !known {
			respond(s, i, fmt.Sprintf("Unknown card theme %q.", opt.StringValue()), true)
			return
		}
		data.Theme = theme
	}

	ctx := context.Background()
	if url := avatarURL(i, userID); url != "" {
		if img, err := card.FetchImage(ctx, url); err == nil {
			data.Avatar = img
		} else {
			slog.Warn("Failed to fetch avatar for card", "user_id", userID, "error", err)
		}
	}
	if ref, ok := h.Engine.Background(i.GuildID, userID); ok {
		if img, err := card.FetchImage(ctx, ref); err == nil {
			data.Background = img
		} else {
			slog.Warn("Failed to fetch card background", "user_id", userID, "error", err)
		}
	}

	png, err := h.Cards.Render(data)
	if err != nil {
		slog.Error("Failed to render level card", "user_id", userID, "error", err)
		respond(s, i, "Failed to render the level card.", true)
		return
	}

	respondFile(s, i, "", "level_card.png", png, false)
}

func (h *BotHandler) cardBackground(s DiscordSession, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	}

	opt, ok := opts["image_url"]
	if !ok {
		h.Engine.ClearBackground(i.GuildID, userID)
		respond(s, i, "Your card background has been reset to the default.", true)
		return
	}

	url := opt.StringValue()
	if err := card.ValidateImageURL(url); err != nil {
		respond(s, i, err.Error(), true)
		return
	}
	if err := h.Engine.SetBackground(i.GuildID, userID, url); err != nil {
		respond(s, i, err.Error(), true)
		return
	}
	respond(s, i, "Your card background has been updated.", true)
}

func (h *BotHandler) cardResetBackgrounds(s DiscordSession, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		respond(s, i, formatting.MsgAdminRequired, true)
		return
	}

	removed, err := h.Engine.ResetBackgrounds(context.Background(), i.GuildID)
	if err != nil {
		slog.Error("Failed to reset card backgrounds", "guild_id", i.GuildID, "error", err)
		respond(s, i, "Failed to reset card backgrounds.", true)
		return
	}
	if removed == 0 {
		respond(s, i, "No custom backgrounds to reset.", true)
		return
	}
	respond(s, i, fmt.Sprintf("Reset %d custom backgrounds.", removed), true)
}

// Advanced handles /level-advanced diagnose, backup and the two-step
// reset protocol.
func (h *BotHandler) Advanced(s DiscordSession, i *discordgo.InteractionCreate) {
	sub, options := subcommand(i)
	opts := optionMap(options)
	ctx := context.Background()

	switch sub {
	case "diagnose":
		report, err := h.Engine.Diagnose(ctx, i.GuildID)
		if err != nil {
			respond(s, i, "Diagnose failed: "+err.Error(), true)
			return
		}
		respond(s, i, formatReport(report), true)

	case "backup":
		snapshot := h.Engine.Backup(i.GuildID)
		raw, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			respond(s, i, "Backup failed: "+err.Error(), true)
			return
		}
		name := fmt.Sprintf("leveling_backup_%s_%s.json", i.GuildID, snapshot.ExportedAt.Format("20060102_150405"))
		respondFile(s, i, formatting.MsgBackupReady, name, raw, true)

	case "resetuser":
		userID := resolvedUserID(i, opts, "member")
		h.requestReset(s, i, userID, fmt.Sprintf("%s's level and XP", formatting.Mention(userID)))

	case "resetall":
		h.requestReset(s, i, "", "**all** leveling profiles on this server")

	case "confirm":
		token := opts["token"].StringValue()
		removed, err := h.Engine.ConfirmReset(ctx, token)
		if errors.Is(err, domain.ErrConfirmationRequired) {
			respond(s, i, formatting.MsgConfirmExpired, true)
			return
		}
		if err != nil {
			respond(s, i, "Reset failed: "+err.Error(), true)
			return
		}
		respond(s, i, formatting.MsgResetDone(removed), true)
	}
}

func (h *BotHandler) requestReset(s DiscordSession, i *discordgo.InteractionCreate, userID, what string) {
	confirmation, err := h.Engine.RequestReset(i.GuildID, userID)
	if err != nil {
		respond(s, i, "Failed to start the reset: "+err.Error(), true)
		return
	}

	prompt := formatting.MsgResetPrompt(what, h.Config.ConfirmTTL.String())
	prompt += fmt.Sprintf("\nRun `/level-advanced confirm token:%s` to proceed.", confirmation.Token)
	respond(s, i, prompt, true)
}

func formatReport(report *domain.Report) string {
	var b strings.Builder
	b.WriteString("## Leveling Diagnostic Report\n")
	fmt.Fprintf(&b, "Scanned %d profile(s).\n", report.ProfilesScanned)

	if len(report.Findings) == 0 {
		b.WriteString("✨ No issues found!")
		return b.String()
	}

	for _, finding := range report.Findings {
		fmt.Fprintf(&b, "🛠️ **%s**: %s (was: %s)\n", formatting.IssueLabel(finding.Issue), finding.Action, finding.Before)
	}
	fmt.Fprintf(&b, "Fixed %d issue(s).", len(report.Findings))
	return b.String()
}
