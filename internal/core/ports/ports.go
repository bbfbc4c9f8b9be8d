package ports

import (
	"context"
	"time"

	"guild-leveling-bot/internal/core/domain"
)

// Repository persists the leveling state, one document per concern. The
// engine is the only writer; load failures fall back to empty documents
// so a corrupt file never aborts startup.
type Repository interface {
	LoadAll(ctx context.Context) (*domain.DataSet, error)

	SaveProfiles(ctx context.Context, profiles map[string]map[string]*domain.UserProfile) error
	SaveRewards(ctx context.Context, rewards map[string]domain.RewardTable) error
	SaveTemplates(ctx context.Context, templates map[string]domain.Templates) error
	SaveBackgrounds(ctx context.Context, backgrounds map[string]map[string]string) error
	SaveSettings(ctx context.Context, settings map[string]*domain.GuildSettings) error

	Close()
}

// GuildService is the platform surface the engine consumes. Role and
// message calls are best-effort network operations; the engine records
// their failures instead of unwinding committed state.
type GuildService interface {
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
	RevokeRole(ctx context.Context, guildID, userID, roleID string) error
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)

	MemberExists(ctx context.Context, guildID, userID string) (bool, error)
	RoleExists(guildID, roleID string) bool
	ChannelExists(guildID, channelID string) bool
	GuildName(guildID string) string

	SendMessage(channelID, content string) error
}

// Clock is injectable time, so cooldown and confirmation expiry are
// testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a func to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
