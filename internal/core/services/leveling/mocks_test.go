package leveling

import (
	"context"
	"time"

	"guild-leveling-bot/internal/config"
	"guild-leveling-bot/internal/core/domain"
)

type mockStore struct {
	loadAllFunc         func(ctx context.Context) (*domain.DataSet, error)
	saveProfilesFunc    func(ctx context.Context, profiles map[string]map[string]*domain.UserProfile) error
	saveRewardsFunc     func(ctx context.Context, rewards map[string]domain.RewardTable) error
	saveTemplatesFunc   func(ctx context.Context, templates map[string]domain.Templates) error
	saveBackgroundsFunc func(ctx context.Context, backgrounds map[string]map[string]string) error
	saveSettingsFunc    func(ctx context.Context, settings map[string]*domain.GuildSettings) error

	saved map[string]int
}

func (m *mockStore) record(concern string) {
	if m.saved == nil {
		m.saved = make(map[string]int)
	}
	m.saved[concern]++
}

func (m *mockStore) LoadAll(ctx context.Context) (*domain.DataSet, error) {
	if m.loadAllFunc != nil {
		return m.loadAllFunc(ctx)
	}
	return domain.NewDataSet(), nil
}

func (m *mockStore) SaveProfiles(ctx context.Context, profiles map[string]map[string]*domain.UserProfile) error {
	m.record("profiles")
	if m.saveProfilesFunc != nil {
		return m.saveProfilesFunc(ctx, profiles)
	}
	return nil
}

func (m *mockStore) SaveRewards(ctx context.Context, rewards map[string]domain.RewardTable) error {
	m.record("rewards")
	if m.saveRewardsFunc != nil {
		return m.saveRewardsFunc(ctx, rewards)
	}
	return nil
}

func (m *mockStore) SaveTemplates(ctx context.Context, templates map[string]domain.Templates) error {
	m.record("templates")
	if m.saveTemplatesFunc != nil {
		return m.saveTemplatesFunc(ctx, templates)
	}
	return nil
}

func (m *mockStore) SaveBackgrounds(ctx context.Context, backgrounds map[string]map[string]string) error {
	m.record("backgrounds")
	if m.saveBackgroundsFunc != nil {
		return m.saveBackgroundsFunc(ctx, backgrounds)
	}
	return nil
}

func (m *mockStore) SaveSettings(ctx context.Context, settings map[string]*domain.GuildSettings) error {
	m.record("settings")
	if m.saveSettingsFunc != nil {
		return m.saveSettingsFunc(ctx, settings)
	}
	return nil
}

func (m *mockStore) Close() {}

type mockGuild struct {
	grantRoleFunc     func(ctx context.Context, guildID, userID, roleID string) error
	revokeRoleFunc    func(ctx context.Context, guildID, userID, roleID string) error
	memberRolesFunc   func(ctx context.Context, guildID, userID string) ([]string, error)
	memberExistsFunc  func(ctx context.Context, guildID, userID string) (bool, error)
	roleExistsFunc    func(guildID, roleID string) bool
	channelExistsFunc func(guildID, channelID string) bool
	guildNameFunc     func(guildID string) string
	sendMessageFunc   func(channelID, content string) error

	granted []string
	revoked []string
}

func (m *mockGuild) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	if m.grantRoleFunc != nil {
		if err := m.grantRoleFunc(ctx, guildID, userID, roleID); err != nil {
			return err
		}
	}
	m.granted = append(m.granted, roleID)
	return nil
}

func (m *mockGuild) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	if m.revokeRoleFunc != nil {
		if err := m.revokeRoleFunc(ctx, guildID, userID, roleID); err != nil {
			return err
		}
	}
	m.revoked = append(m.revoked, roleID)
	return nil
}

func (m *mockGuild) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	if m.memberRolesFunc != nil {
		return m.memberRolesFunc(ctx, guildID, userID)
	}
	return nil, nil
}

func (m *mockGuild) MemberExists(ctx context.Context, guildID, userID string) (bool, error) {
	if m.memberExistsFunc != nil {
		return m.memberExistsFunc(ctx, guildID, userID)
	}
	return true, nil
}

func (m *mockGuild) RoleExists(guildID, roleID string) bool {
	if m.roleExistsFunc != nil {
		return m.roleExistsFunc(guildID, roleID)
	}
	return true
}

func (m *mockGuild) ChannelExists(guildID, channelID string) bool {
	if m.channelExistsFunc != nil {
		return m.channelExistsFunc(guildID, channelID)
	}
	return true
}

func (m *mockGuild) GuildName(guildID string) string {
	if m.guildNameFunc != nil {
		return m.guildNameFunc(guildID)
	}
	return "Test Server"
}

func (m *mockGuild) SendMessage(channelID, content string) error {
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(channelID, content)
	}
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func makeEngine(store *mockStore, guild *mockGuild, clock *fakeClock, roll func(min, max int) int) *Engine {
	if store == nil {
		store = &mockStore{}
	}
	if guild == nil {
		guild = &mockGuild{}
	}
	if clock == nil {
		clock = &fakeClock{now: time.Unix(1_700_000_000, 0)}
	}
	if roll == nil {
		roll = func(min, max int) int { return min }
	}

	return NewEngine(Dependencies{
		Config: &config.Config{AutosaveInterval: time.Minute, ConfirmTTL: time.Minute},
		Store:  store,
		Guild:  guild,
		Clock:  clock,
		Roll:   roll,
	})
}
