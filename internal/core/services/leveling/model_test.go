package leveling

import (
	"testing"
	"time"

	"guild-leveling-bot/internal/core/domain"
)

func TestXPForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{-1, 0},
		{0, 0},
		{1, 155},
		{2, 220},
		{5, 475},
		{10, 1100},
		{100, 55100},
	}

	for _, tt := range tests {
		if got := XPForLevel(tt.level); got != tt.want {
			t.Errorf("XPForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{0, 0},
		{154, 0},
		{155, 1},
		{219, 1},
		{220, 2},
		{1099, 9},
		{1100, 10},
		{55099, 99},
		{55100, 100},
		{1_000_000_000, 14137},
	}

	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelXPRoundTrip(t *testing.T) {
	for level := 1; level <= 500; level++ {
		floor := XPForLevel(level)
		if got := LevelForXP(floor); got != level {
			t.Fatalf("LevelForXP(XPForLevel(%d)) = %d", level, got)
		}
		if got := LevelForXP(floor - 1); got != level-1 {
			t.Fatalf("LevelForXP(XPForLevel(%d)-1) = %d, want %d", level, got, level-1)
		}
	}
}

func TestGrant(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	settings := domain.DefaultSettings()
	fixedRoll := func(min, max int) int { return 15 }

	t.Run("grants xp and stamps cooldown", func(t *testing.T) {
		profile := &domain.UserProfile{}
		result := Grant(profile, now, settings, fixedRoll)

		if result.Granted != 15 {
			t.Errorf("expected 15 granted, got %d", result.Granted)
		}
		if profile.XP != 15 {
			t.Errorf("expected xp 15, got %d", profile.XP)
		}
		if profile.LastMessage != now.Unix() {
			t.Errorf("expected last message %d, got %d", now.Unix(), profile.LastMessage)
		}
		if result.LeveledUp {
			t.Error("15 xp should not level up")
		}
	})

	t.Run("suppressed within cooldown", func(t *testing.T) {
		profile := &domain.UserProfile{XP: 100, LastMessage: now.Unix() - 30}
		result := Grant(profile, now, settings, fixedRoll)

		if result.Granted != 0 {
			t.Errorf("expected no grant, got %d", result.Granted)
		}
		if profile.XP != 100 {
			t.Errorf("profile mutated during cooldown: xp %d", profile.XP)
		}
	})

	t.Run("granted exactly at cooldown boundary", func(t *testing.T) {
		profile := &domain.UserProfile{LastMessage: now.Unix() - int64(settings.CooldownSeconds)}
		result := Grant(profile, now, settings, fixedRoll)

		if result.Granted != 15 {
			t.Errorf("expected grant at boundary, got %d", result.Granted)
		}
	})

	t.Run("no-op when leveling disabled", func(t *testing.T) {
		disabled := settings
		disabled.Enabled = false
		profile := &domain.UserProfile{XP: 50}
		result := Grant(profile, now, disabled, fixedRoll)

		if result.Granted != 0 || profile.XP != 50 {
			t.Errorf("expected untouched profile, got granted=%d xp=%d", result.Granted, profile.XP)
		}
	})

	t.Run("reports level crossing", func(t *testing.T) {
		profile := &domain.UserProfile{XP: 150, Level: 0}
		result := Grant(profile, now, settings, fixedRoll)

		if !result.LeveledUp {
			t.Fatal("expected level up at 165 xp")
		}
		if result.OldLevel != 0 || result.NewLevel != 1 {
			t.Errorf("expected 0 -> 1, got %d -> %d", result.OldLevel, result.NewLevel)
		}
	})
}
