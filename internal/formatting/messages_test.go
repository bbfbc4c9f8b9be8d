package formatting

import (
	"strings"
	"testing"
)

func TestRenderLevelUp(t *testing.T) {
	tests := []struct {
		name     string
		template string
		userID   string
		level    int
		server   string
		expected string
	}{
		{
			name:     "default template",
			template: DefaultLevelUpTemplate,
			userID:   "123",
			level:    5,
			server:   "My Server",
			expected: "🎉 Congratulations <@123>! You've reached level **5** in My Server!",
		},
		{
			name:     "custom template",
			template: "GG {user}, level {level}!",
			userID:   "456",
			level:    10,
			server:   "Unused",
			expected: "GG <@456>, level 10!",
		},
		{
			name:     "placeholder repeats",
			template: "{level} {level} {user}",
			userID:   "789",
			level:    2,
			server:   "S",
			expected: "2 2 <@789>",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			userID:   "1",
			level:    1,
			server:   "S",
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderLevelUp(tt.template, tt.userID, tt.level, tt.server)
			if got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestMentions(t *testing.T) {
	if got := Mention("123"); got != "<@123>" {
		t.Errorf("Expected '<@123>', got '%s'", got)
	}
	if got := RoleMention("456"); got != "<@&456>" {
		t.Errorf("Expected '<@&456>', got '%s'", got)
	}
}

func TestThemeLabel(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"default", "Default"},
		{"dark", "Dark"},
		{"gold", "Gold"},
	}

	for _, tt := range tests {
		if got := ThemeLabel(tt.name); got != tt.expected {
			t.Errorf("ThemeLabel(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestIssueLabel(t *testing.T) {
	tests := []struct {
		issue    string
		expected string
	}{
		{"orphaned-user", "Orphaned User"},
		{"negative-xp", "Negative Xp"},
		{"level-mismatch", "Level Mismatch"},
		{"orphaned-channel", "Orphaned Channel"},
	}

	for _, tt := range tests {
		if got := IssueLabel(tt.issue); got != tt.expected {
			t.Errorf("IssueLabel(%q) = %q, want %q", tt.issue, got, tt.expected)
		}
	}
}

func TestMsgHelpers(t *testing.T) {
	t.Run("xp set", func(t *testing.T) {
		got := MsgXPSet("123", 500, 3)
		if got != "Set <@123>'s XP to 500 (level 3)." {
			t.Errorf("unexpected message: %s", got)
		}
	})

	t.Run("reward added", func(t *testing.T) {
		got := MsgRewardAdded("456", 10)
		if !strings.Contains(got, "<@&456>") || !strings.Contains(got, "level 10") {
			t.Errorf("unexpected message: %s", got)
		}
	})

	t.Run("xp rate", func(t *testing.T) {
		got := MsgXPRate(5, 25, 30)
		if got != "XP rate updated: 5-25 XP per message, 30s cooldown." {
			t.Errorf("unexpected message: %s", got)
		}
	})

	t.Run("reset prompt warns about permanence", func(t *testing.T) {
		got := MsgResetPrompt("all XP data for this server", "60s")
		if !strings.Contains(got, "no undo") || !strings.Contains(got, "60s") {
			t.Errorf("unexpected message: %s", got)
		}
	})
}
