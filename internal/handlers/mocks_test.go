package handlers

import (
	"context"
	"time"

	"guild-leveling-bot/internal/config"
	"guild-leveling-bot/internal/core/domain"
	"guild-leveling-bot/internal/core/services/leveling"

	"github.com/bwmarrin/discordgo"
)

// Mock Discord Session
type mockDiscordSession struct {
	interactionRespondFunc  func(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	lastInteractionResponse *discordgo.InteractionResponse
	lastInteraction         *discordgo.Interaction
}

func (m *mockDiscordSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	m.lastInteraction = interaction
	m.lastInteractionResponse = resp
	if m.interactionRespondFunc != nil {
		return m.interactionRespondFunc(interaction, resp)
	}
	return nil
}

type mockNotifier struct {
	sendMessageFunc func(channelID, content string) error

	lastChannelID string
	lastContent   string
	sent          int
}

func (m *mockNotifier) SendMessage(channelID, content string) error {
	m.lastChannelID = channelID
	m.lastContent = content
	m.sent++
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(channelID, content)
	}
	return nil
}

type stubRepository struct{}

func (stubRepository) LoadAll(ctx context.Context) (*domain.DataSet, error) {
	return domain.NewDataSet(), nil
}
func (stubRepository) SaveProfiles(ctx context.Context, profiles map[string]map[string]*domain.UserProfile) error {
	return nil
}
func (stubRepository) SaveRewards(ctx context.Context, rewards map[string]domain.RewardTable) error {
	return nil
}
func (stubRepository) SaveTemplates(ctx context.Context, templates map[string]domain.Templates) error {
	return nil
}
func (stubRepository) SaveBackgrounds(ctx context.Context, backgrounds map[string]map[string]string) error {
	return nil
}
func (stubRepository) SaveSettings(ctx context.Context, settings map[string]*domain.GuildSettings) error {
	return nil
}
func (stubRepository) Close() {}

type stubGuild struct{}

func (stubGuild) GrantRole(ctx context.Context, guildID, userID, roleID string) error  { return nil }
func (stubGuild) RevokeRole(ctx context.Context, guildID, userID, roleID string) error { return nil }
func (stubGuild) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	return nil, nil
}
func (stubGuild) MemberExists(ctx context.Context, guildID, userID string) (bool, error) {
	return true, nil
}
func (stubGuild) RoleExists(guildID, roleID string) bool       { return true }
func (stubGuild) ChannelExists(guildID, channelID string) bool { return true }
func (stubGuild) GuildName(guildID string) string              { return "Test Server" }
func (stubGuild) SendMessage(channelID, content string) error  { return nil }

func testConfig() *config.Config {
	return &config.Config{AutosaveInterval: time.Minute, ConfirmTTL: time.Minute}
}

func makeHandler() *BotHandler {
	cfg := testConfig()
	engine := leveling.NewEngine(leveling.Dependencies{
		Config: cfg,
		Store:  stubRepository{},
		Guild:  stubGuild{},
	})
	return &BotHandler{
		Config: cfg,
		Engine: engine,
		Notify: &mockNotifier{},
	}
}

// levelUpEngine returns an engine whose first grant always crosses a
// level threshold.
func levelUpEngine() *leveling.Engine {
	return leveling.NewEngine(leveling.Dependencies{
		Config: testConfig(),
		Store:  stubRepository{},
		Guild:  stubGuild{},
		Roll:   func(min, max int) int { return 200 },
	})
}

func guildMessage(guildID, userID, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			GuildID:   guildID,
			ChannelID: "chan-1",
			Content:   content,
			Author:    &discordgo.User{ID: userID, Username: "User"},
		},
	}
}

// commandInteraction builds a subcommand invocation with an admin member.
func commandInteraction(command, sub string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: "guild-1",
			Member: &discordgo.Member{
				User:        &discordgo.User{ID: "invoker", Username: "Invoker"},
				Permissions: discordgo.PermissionAdministrator,
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name: command,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{
						Name:    sub,
						Type:    discordgo.ApplicationCommandOptionSubCommand,
						Options: options,
					},
				},
			},
		},
	}
}

func intOption(name string, value int64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func userOption(name, userID string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionUser,
		Value: userID,
	}
}

func roleOption(name, roleID string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionRole,
		Value: roleID,
	}
}

func boolOption(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionBoolean,
		Value: value,
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}
