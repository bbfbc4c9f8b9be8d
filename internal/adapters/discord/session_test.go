package discord

import (
	"testing"

	"guild-leveling-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

func TestNewSession_Success(t *testing.T) {
	cfg := &config.Config{
		Token: "MTk.test.token",
	}

	session, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expectedToken := "Bot MTk.test.token"
	if session.Token != expectedToken {
		t.Errorf("Expected token '%s', got '%s'", expectedToken, session.Token)
	}
}

func TestNewSession_IntentsConfiguration(t *testing.T) {
	cfg := &config.Config{
		Token: "test-token",
	}

	session, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expectedIntents := discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent
	if session.Identify.Intents != expectedIntents {
		t.Errorf("Expected intents %d, got %d", expectedIntents, session.Identify.Intents)
	}

	// Content arrives empty without this privileged intent, which would
	// starve the XP pipeline of every organic message.
	if session.Identify.Intents&discordgo.IntentMessageContent == 0 {
		t.Error("Expected the MessageContent intent to be requested")
	}
}

func TestNewSession_StateTracking(t *testing.T) {
	cfg := &config.Config{
		Token: "test-token",
	}

	session, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !session.State.TrackMembers || !session.State.TrackRoles || !session.State.TrackChannels {
		t.Error("Expected member, role and channel state tracking to be enabled")
	}
}
