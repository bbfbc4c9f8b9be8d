package domain

import "time"

// Default guild settings, applied when a guild has no explicit record.
const (
	DefaultXPMin           = 10
	DefaultXPMax           = 20
	DefaultCooldownSeconds = 60
)

// SnapshotFormatVersion is bumped whenever the backup layout changes.
const SnapshotFormatVersion = 1

// UserProfile is the per-(guild, user) leveling record. Level is derived
// from XP and kept in sync by the engine; LastMessage is the unix time of
// the last organic XP grant and drives the cooldown.
type UserProfile struct {
	XP          int64 `json:"xp"`
	Level       int   `json:"level"`
	LastMessage int64 `json:"last_message"`
}

// RewardTable maps a level threshold to the role awarded at that level.
// Thresholds are unique per guild by construction (map keys).
type RewardTable map[int]string

// Roles returns the set of every role ID appearing in the table.
func (t RewardTable) Roles() map[string]bool {
	roles := make(map[string]bool, len(t))
	for _, roleID := range t {
		roles[roleID] = true
	}
	return roles
}

// Templates maps a level threshold to a level-up message template.
// Threshold 0 is the guild default. Templates may contain the
// placeholders {user}, {level} and {server}.
type Templates map[int]string

// GuildSettings holds the per-guild leveling configuration.
type GuildSettings struct {
	Enabled         bool   `json:"enabled"`
	Announcements   bool   `json:"level_up_messages"`
	XPMin           int    `json:"min_xp"`
	XPMax           int    `json:"max_xp"`
	CooldownSeconds int    `json:"xp_cooldown"`
	AnnounceChannel string `json:"level_up_channel,omitempty"`
}

// Normalize repairs fields an older or hand-edited settings document
// may have left missing or out of range, and reports whether anything
// changed. A zero XP range would otherwise grant 0 XP on every message
// and silently halt leveling for the guild.
func (s *GuildSettings) Normalize() bool {
	changed := false
	if s.XPMin <= 0 {
		s.XPMin = DefaultXPMin
		changed = true
	}
	if s.XPMax <= 0 {
		s.XPMax = DefaultXPMax
		changed = true
	}
	if s.XPMax < s.XPMin {
		s.XPMax = s.XPMin
		changed = true
	}
	if s.CooldownSeconds < 0 {
		s.CooldownSeconds = DefaultCooldownSeconds
		changed = true
	}
	return changed
}

// DefaultSettings returns the settings used for guilds without a record.
func DefaultSettings() GuildSettings {
	return GuildSettings{
		Enabled:         true,
		Announcements:   true,
		XPMin:           DefaultXPMin,
		XPMax:           DefaultXPMax,
		CooldownSeconds: DefaultCooldownSeconds,
	}
}

// DataSet is the full in-memory state owned by the engine, one map per
// persisted concern, each keyed by guild ID.
type DataSet struct {
	Profiles    map[string]map[string]*UserProfile
	Rewards     map[string]RewardTable
	Templates   map[string]Templates
	Backgrounds map[string]map[string]string
	Settings    map[string]*GuildSettings
}

func NewDataSet() *DataSet {
	return &DataSet{
		Profiles:    make(map[string]map[string]*UserProfile),
		Rewards:     make(map[string]RewardTable),
		Templates:   make(map[string]Templates),
		Backgrounds: make(map[string]map[string]string),
		Settings:    make(map[string]*GuildSettings),
	}
}

// ExternalFailure records a best-effort platform call that failed during
// reconciliation or announcement. Failures never roll back the XP
// mutation already committed.
type ExternalFailure struct {
	Op     string
	RoleID string
	Err    string
}

// LevelUpEvent is returned by the engine when a grant crosses one or
// more level thresholds.
type LevelUpEvent struct {
	GuildID  string
	UserID   string
	OldLevel int
	NewLevel int
	XPGained int

	RolesGranted  []string
	RolesRevoked  []string
	OrphanedRoles []string
	Failed        []ExternalFailure

	// Message is the rendered level-up announcement. Announce reflects
	// the guild's announcement setting; AnnounceChannel is empty when
	// the caller should reply in the channel the message arrived in.
	Message         string
	Announce        bool
	AnnounceChannel string
}

// Finding is one issue detected and fixed by a diagnose run.
type Finding struct {
	Issue  string `json:"issue"`
	Action string `json:"action"`
	Before string `json:"before"`
}

// Report summarizes a diagnose run. A second run over the same state
// yields no findings.
type Report struct {
	GuildID         string    `json:"guild_id"`
	RanAt           time.Time `json:"ran_at"`
	ProfilesScanned int       `json:"profiles_scanned"`
	Findings        []Finding `json:"findings"`
}

// Snapshot is an immutable versioned export of one guild's leveling
// state. Given identical input state it is deterministic apart from
// ExportedAt.
type Snapshot struct {
	FormatVersion int                     `json:"format_version"`
	ExportedAt    time.Time               `json:"exported_at"`
	GuildID       string                  `json:"guild_id"`
	Profiles      map[string]*UserProfile `json:"profiles"`
	Rewards       RewardTable             `json:"role_rewards"`
	Templates     Templates               `json:"level_messages"`
	Backgrounds   map[string]string       `json:"backgrounds"`
	Settings      *GuildSettings          `json:"settings,omitempty"`
}

// LeaderboardEntry is one row of the per-guild XP ranking.
type LeaderboardEntry struct {
	Rank   int
	UserID string
	XP     int64
	Level  int
}

// Confirmation is the handle returned by a reset request. The matching
// confirm call must arrive before ExpiresAt.
type Confirmation struct {
	Token     string
	GuildID   string
	UserID    string // empty for a full-guild reset
	ExpiresAt time.Time
}
