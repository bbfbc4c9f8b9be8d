package formatting

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultLevelUpTemplate is used when a guild has no custom template.
const DefaultLevelUpTemplate = "🎉 Congratulations {user}! You've reached level **{level}** in {server}!"

const (
	MsgAdminRequired    = "You need Administrator permissions to use this command."
	MsgGuildOnly        = "This command can only be used in a server."
	MsgSaveError        = "Failed to save. Please try again."
	MsgNoXPData         = "No XP data available for this server yet!"
	MsgNoRewards        = "No role rewards have been set up for this server."
	MsgConfirmExpired   = "Confirmation expired or unknown. Run the reset command again."
	MsgBackupReady      = "📤 Here's your leveling system backup file."
	MsgLevelingOn       = "Leveling is now **enabled** on this server."
	MsgLevelingOff      = "Leveling is now **disabled** on this server."
	MsgAnnouncementsOn  = "Level-up messages are now **enabled**."
	MsgAnnouncementsOff = "Level-up messages are now **disabled**."
)

var titleCaser = cases.Title(language.English)

// RenderLevelUp substitutes the {user}, {level} and {server}
// placeholders of a level-up template.
func RenderLevelUp(template, userID string, level int, serverName string) string {
	replacer := strings.NewReplacer(
		"{user}", Mention(userID),
		"{level}", fmt.Sprintf("%d", level),
		"{server}", serverName,
	)
	return replacer.Replace(template)
}

// Mention formats a user ID as a Discord mention.
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

// RoleMention formats a role ID as a Discord role mention.
func RoleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

// IssueLabel renders a diagnose issue kind for display
// ("orphaned-user" -> "Orphaned User").
func IssueLabel(issue string) string {
	return titleCaser.String(strings.ReplaceAll(issue, "-", " "))
}

// ThemeLabel renders a card theme name for display ("gold" -> "Gold").
func ThemeLabel(name string) string {
	return titleCaser.String(name)
}

func MsgXPSet(userID string, xp int64, level int) string {
	return fmt.Sprintf("Set %s's XP to %d (level %d).", Mention(userID), xp, level)
}

func MsgXPAdded(userID string, delta int64, level int) string {
	return fmt.Sprintf("Added %d XP to %s. They are now level %d.", delta, Mention(userID), level)
}

func MsgLevelSet(userID string, level int, xp int64) string {
	return fmt.Sprintf("Set %s's level to %d (XP set to %d).", Mention(userID), level, xp)
}

func MsgRewardAdded(roleID string, level int) string {
	return fmt.Sprintf("✅ Role %s will now be awarded when members reach level %d.", RoleMention(roleID), level)
}

func MsgRewardRemoved(roleID string, level int) string {
	return fmt.Sprintf("✅ Removed %s as a reward for level %d.", RoleMention(roleID), level)
}

func MsgXPRate(xpMin, xpMax, cooldownSeconds int) string {
	return fmt.Sprintf("XP rate updated: %d-%d XP per message, %ds cooldown.", xpMin, xpMax, cooldownSeconds)
}

func MsgRoleFailures(failed int) string {
	return fmt.Sprintf("⚠️ %d role operation(s) failed; they will be retried on the next level change.", failed)
}

func MsgResetPrompt(what string, expiresIn string) string {
	return fmt.Sprintf("⚠️ This will permanently erase %s. Confirm within %s. There is no undo.", what, expiresIn)
}

func MsgResetDone(removed int) string {
	return fmt.Sprintf("🗑️ Reset complete. Removed %d profile(s).", removed)
}
