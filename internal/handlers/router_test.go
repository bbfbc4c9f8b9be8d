package handlers

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestNewRouter(t *testing.T) {
	router := NewRouter()

	if router == nil {
		t.Fatal("Expected NewRouter to return non-nil router")
	}

	if router.handlers == nil {
		t.Error("Expected handlers map to be initialized")
	}

	if len(router.handlers) != 0 {
		t.Errorf("Expected empty handlers map, got %d entries", len(router.handlers))
	}
}

func TestRouter_Register(t *testing.T) {
	router := NewRouter()

	var handlerCalled bool
	handler := func(s DiscordSession, i *discordgo.InteractionCreate) {
		handlerCalled = true
	}

	router.Register("level", handler)

	if len(router.handlers) != 1 {
		t.Fatalf("Expected 1 handler, got %d", len(router.handlers))
	}

	if _, exists := router.handlers["level"]; !exists {
		t.Error("Expected level to be registered")
	}

	router.handlers["level"](nil, nil)
	if !handlerCalled {
		t.Error("Expected registered handler to be callable")
	}
}

func TestRouter_Handle_DispatchesToCorrectHandler(t *testing.T) {
	router := NewRouter()
	mockSession := &mockDiscordSession{}

	var calledCommand string
	router.Register("level", func(s DiscordSession, i *discordgo.InteractionCreate) {
		calledCommand = "level"
	})
	router.Register("level-admin", func(s DiscordSession, i *discordgo.InteractionCreate) {
		calledCommand = "level-admin"
	})

	interaction := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: "level-admin",
			},
		},
	}

	router.Handle(mockSession, interaction)

	if calledCommand != "level-admin" {
		t.Errorf("Expected level-admin to be called, got %s", calledCommand)
	}
}

func TestRouter_Handle_IgnoresNonCommandInteractions(t *testing.T) {
	router := NewRouter()
	mockSession := &mockDiscordSession{}

	var handlerCalled bool
	router.Register("level", func(s DiscordSession, i *discordgo.InteractionCreate) {
		handlerCalled = true
	})

	testCases := []struct {
		name            string
		interactionType discordgo.InteractionType
	}{
		{"Ping", discordgo.InteractionPing},
		{"MessageComponent", discordgo.InteractionMessageComponent},
		{"ApplicationCommandAutocomplete", discordgo.InteractionApplicationCommandAutocomplete},
		{"ModalSubmit", discordgo.InteractionModalSubmit},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handlerCalled = false

			interaction := &discordgo.InteractionCreate{
				Interaction: &discordgo.Interaction{
					Type: tc.interactionType,
					Data: discordgo.ApplicationCommandInteractionData{
						Name: "level",
					},
				},
			}

			router.Handle(mockSession, interaction)

			if handlerCalled {
				t.Errorf("Expected handler NOT to be called for %s interaction", tc.name)
			}
		})
	}
}

func TestRouter_Handle_UnregisteredCommand(t *testing.T) {
	router := NewRouter()
	mockSession := &mockDiscordSession{}

	var handlerCalled bool
	router.Register("level", func(s DiscordSession, i *discordgo.InteractionCreate) {
		handlerCalled = true
	})

	interaction := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: "unregistered-command",
			},
		},
	}

	router.Handle(mockSession, interaction)

	if handlerCalled {
		t.Error("Expected handler NOT to be called for unregistered command")
	}
}
