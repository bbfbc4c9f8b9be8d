package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"guild-leveling-bot/internal/metrics"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// Session is the slice of the discordgo API the adapter needs, narrowed
// for testing with mocked sessions.
type Session interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter implements the platform surface the engine consumes. Lookups
// are served from the gateway state cache where possible; role mutation
// goes through a shared rate limiter so reward bursts (a user crossing
// several thresholds at once) do not trip the REST rate limit.
type Adapter struct {
	session Session
	state   *discordgo.State
	limiter *rate.Limiter
}

func NewAdapter(session Session, state *discordgo.State) *Adapter {
	return &Adapter{
		session: session,
		state:   state,
		limiter: rate.NewLimiter(rate.Limit(4), 10),
	}
}

func (a *Adapter) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := a.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("grant role %s: %w", roleID, err)
	}
	return nil
}

func (a *Adapter) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := a.session.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		return fmt.Errorf("revoke role %s: %w", roleID, err)
	}
	return nil
}

func (a *Adapter) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	if member, err := a.state.Member(guildID, userID); err == nil {
		return member.Roles, nil
	}

	member, err := a.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	return member.Roles, nil
}

func (a *Adapter) MemberExists(ctx context.Context, guildID, userID string) (bool, error) {
	if _, err := a.state.Member(guildID, userID); err == nil {
		return true, nil
	}

	_, err := a.session.GuildMember(guildID, userID)
	if err == nil {
		return true, nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("fetch member %s: %w", userID, err)
}

func (a *Adapter) RoleExists(guildID, roleID string) bool {
	_, err := a.state.Role(guildID, roleID)
	return err == nil
}

func (a *Adapter) ChannelExists(guildID, channelID string) bool {
	channel, err := a.state.Channel(channelID)
	return err == nil && channel.GuildID == guildID
}

func (a *Adapter) GuildName(guildID string) string {
	guild, err := a.state.Guild(guildID)
	if err != nil {
		return ""
	}
	return guild.Name
}

func (a *Adapter) SendMessage(channelID, content string) error {
	if _, err := a.session.ChannelMessageSend(channelID, content); err != nil {
		slog.Error("Failed to send message", "channel_id", channelID, "error", err)
		metrics.DiscordMessagesSent.WithLabelValues("announcement", "failure").Inc()
		return err
	}

	metrics.DiscordMessagesSent.WithLabelValues("announcement", "success").Inc()
	return nil
}
