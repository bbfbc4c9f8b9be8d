package leveling

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"guild-leveling-bot/internal/config"
	"guild-leveling-bot/internal/core/domain"
	"guild-leveling-bot/internal/core/ports"
	"guild-leveling-bot/internal/formatting"
	"guild-leveling-bot/internal/metrics"
)

type concern string

const (
	concernProfiles    concern = "profiles"
	concernRewards     concern = "rewards"
	concernTemplates   concern = "templates"
	concernBackgrounds concern = "backgrounds"
	concernSettings    concern = "settings"
)

type Dependencies struct {
	Config *config.Config
	Store  ports.Repository
	Guild  ports.GuildService

	// Clock and Roll are injectable for tests; nil means real time and
	// a uniform random draw.
	Clock ports.Clock
	Roll  func(min, max int) int
}

// Engine owns the in-memory leveling state and is the sole
// writer-of-record: command handlers mutate through its API, never the
// store directly. One mutex serializes every read-modify-write,
// including the reconciliation decision, so admin commands cannot race
// organic grants.
type Engine struct {
	cfg   *config.Config
	store ports.Repository
	guild ports.GuildService
	clock ports.Clock
	roll  func(min, max int) int

	mu      sync.Mutex
	data    *domain.DataSet
	dirty   map[concern]bool
	pending map[string]domain.Confirmation
}

func NewEngine(deps Dependencies) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = ports.ClockFunc(time.Now)
	}

	roll := deps.Roll
	if roll == nil {
		roll = func(min, max int) int {
			if max <= min {
				return min
			}
			return min + rand.IntN(max-min+1)
		}
	}

	return &Engine{
		cfg:     deps.Config,
		store:   deps.Store,
		guild:   deps.Guild,
		clock:   clock,
		roll:    roll,
		data:    domain.NewDataSet(),
		dirty:   make(map[concern]bool),
		pending: make(map[string]domain.Confirmation),
	}
}

// Load populates the in-memory state from the store. Called once at
// startup; the store already degrades corrupt documents to empty maps.
// Settings records are normalized field-wise so a partial document
// cannot leave a guild with a zero XP range.
func (e *Engine) Load(ctx context.Context) error {
	data, err := e.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load leveling state: %w", err)
	}

	e.mu.Lock()
	for guildID, settings := range data.Settings {
		if settings.Normalize() {
			slog.Warn("Repaired out-of-range guild settings", "guild_id", guildID)
			e.dirty[concernSettings] = true
		}
	}
	e.data = data
	e.mu.Unlock()

	return nil
}

// OnMessage processes one inbound guild message: cooldown-gated XP
// grant, level recomputation, and on a level-up the role reconciliation
// and rendered announcement. Returns nil when the grant was suppressed
// (disabled guild or cooldown) or no level was crossed.
func (e *Engine) OnMessage(ctx context.Context, guildID, userID string) (*domain.LevelUpEvent, error) {
	e.mu.Lock()

	settings := e.settingsLocked(guildID)
	if !settings.Enabled {
		e.mu.Unlock()
		return nil, nil
	}

	profile := e.profileLocked(guildID, userID)
	result := Grant(profile, e.clock.Now(), settings, e.roll)
	if result.Granted == 0 {
		e.mu.Unlock()
		return nil, nil
	}

	e.dirty[concernProfiles] = true
	metrics.XPGrants.Inc()

	if !result.LeveledUp {
		e.mu.Unlock()
		return nil, nil
	}

	metrics.LevelUps.Inc()
	slog.Info("User leveled up",
		"guild_id", guildID, "user_id", userID,
		"old_level", result.OldLevel, "new_level", result.NewLevel, "xp", profile.XP)

	event := e.buildLevelUpEventLocked(ctx, guildID, userID, result, settings)
	e.mu.Unlock()

	e.applyRoleDiff(ctx, event)
	return event, nil
}

// buildLevelUpEventLocked computes the reconciliation decision and the
// rendered announcement. Caller holds e.mu; the external grant/revoke
// calls happen afterwards, outside the lock.
func (e *Engine) buildLevelUpEventLocked(ctx context.Context, guildID, userID string, result GrantResult, settings domain.GuildSettings) *domain.LevelUpEvent {
	event := &domain.LevelUpEvent{
		GuildID:         guildID,
		UserID:          userID,
		OldLevel:        result.OldLevel,
		NewLevel:        result.NewLevel,
		XPGained:        result.Granted,
		Announce:        settings.Announcements,
		AnnounceChannel: settings.AnnounceChannel,
	}

	template := e.templateLocked(guildID, result.NewLevel)
	event.Message = formatting.RenderLevelUp(template, userID, result.NewLevel, e.guild.GuildName(guildID))

	table := e.data.Rewards[guildID]
	if len(table) == 0 {
		return event
	}

	// Roles deleted on the platform are surfaced as orphans for
	// diagnose, never used as grant or revoke targets.
	live := make(domain.RewardTable, len(table))
	for threshold, roleID := range table {
		if e.guild.RoleExists(guildID, roleID) {
			live[threshold] = roleID
		} else {
			event.OrphanedRoles = append(event.OrphanedRoles, roleID)
		}
	}
	sort.Strings(event.OrphanedRoles)

	current, err := e.guild.MemberRoles(ctx, guildID, userID)
	if err != nil {
		event.Failed = append(event.Failed, domain.ExternalFailure{Op: "member-roles", Err: err.Error()})
		return event
	}

	diff := Reconcile(current, RewardedRoles(result.NewLevel, live), live.Roles())
	event.RolesGranted = diff.ToGrant
	event.RolesRevoked = diff.ToRevoke
	return event
}

// applyRoleDiff performs the best-effort platform calls for an event.
// Failures are recorded on the event and never unwind the XP mutation;
// they are retried, if at all, on the next reconciliation trigger.
func (e *Engine) applyRoleDiff(ctx context.Context, event *domain.LevelUpEvent) {
	granted := event.RolesGranted[:0]
	for _, roleID := range event.RolesGranted {
		if err := e.guild.GrantRole(ctx, event.GuildID, event.UserID, roleID); err != nil {
			slog.Error("Failed to grant reward role",
				"guild_id", event.GuildID, "user_id", event.UserID, "role_id", roleID, "error", err)
			event.Failed = append(event.Failed, domain.ExternalFailure{Op: "grant", RoleID: roleID, Err: err.Error()})
			metrics.RoleOperations.WithLabelValues("grant", "failure").Inc()
			continue
		}
		granted = append(granted, roleID)
		metrics.RoleOperations.WithLabelValues("grant", "success").Inc()
	}
	event.RolesGranted = granted

	revoked := event.RolesRevoked[:0]
	for _, roleID := range event.RolesRevoked {
		if err := e.guild.RevokeRole(ctx, event.GuildID, event.UserID, roleID); err != nil {
			slog.Error("Failed to revoke reward role",
				"guild_id", event.GuildID, "user_id", event.UserID, "role_id", roleID, "error", err)
			event.Failed = append(event.Failed, domain.ExternalFailure{Op: "revoke", RoleID: roleID, Err: err.Error()})
			metrics.RoleOperations.WithLabelValues("revoke", "failure").Inc()
			continue
		}
		revoked = append(revoked, roleID)
		metrics.RoleOperations.WithLabelValues("revoke", "success").Inc()
	}
	event.RolesRevoked = revoked
}

// -- Admin overrides --

// SetXP replaces a user's XP outright, re-deriving the level. Admin
// overrides are never cooldown-gated and always reconcile, since a
// single call may cross several thresholds.
func (e *Engine) SetXP(ctx context.Context, guildID, userID string, xp int64) (*domain.LevelUpEvent, error) {
	if xp < 0 {
		return nil, domain.Validationf("xp", "cannot be negative")
	}

	return e.override(ctx, guildID, userID, func(profile *domain.UserProfile) {
		profile.XP = xp
	})
}

// AddXP adjusts a user's XP by delta, clamping at zero.
func (e *Engine) AddXP(ctx context.Context, guildID, userID string, delta int64) (*domain.LevelUpEvent, error) {
	return e.override(ctx, guildID, userID, func(profile *domain.UserProfile) {
		profile.XP += delta
		if profile.XP < 0 {
			profile.XP = 0
		}
	})
}

// SetLevel sets a user's level, back-solving an XP value in the middle
// of the requested level's span so the pair stays consistent.
func (e *Engine) SetLevel(ctx context.Context, guildID, userID string, level int) (*domain.LevelUpEvent, error) {
	if level < 0 {
		return nil, domain.Validationf("level", "cannot be negative")
	}

	lo, hi := XPForLevel(level), XPForLevel(level+1)
	xp := lo + (hi-lo)/2

	return e.override(ctx, guildID, userID, func(profile *domain.UserProfile) {
		profile.XP = xp
	})
}

func (e *Engine) override(ctx context.Context, guildID, userID string, mutate func(*domain.UserProfile)) (*domain.LevelUpEvent, error) {
	e.mu.Lock()

	settings := e.settingsLocked(guildID)
	profile := e.profileLocked(guildID, userID)

	// Overrides leave LastMessage alone: an admin correction must not
	// consume the member's next organic grant window.
	oldLevel := profile.Level
	mutate(profile)
	profile.Level = LevelForXP(profile.XP)
	e.dirty[concernProfiles] = true

	result := GrantResult{
		LeveledUp: profile.Level > oldLevel,
		OldLevel:  oldLevel,
		NewLevel:  profile.Level,
	}

	event := e.buildLevelUpEventLocked(ctx, guildID, userID, result, settings)
	event.Announce = false // admin overrides are silent
	e.mu.Unlock()

	e.applyRoleDiff(ctx, event)
	return event, nil
}

// -- Read surface --

// Profile returns a copy of the user's record, or ErrNotFound when the
// user has never earned XP in the guild.
func (e *Engine) Profile(guildID, userID string) (domain.UserProfile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	users, ok := e.data.Profiles[guildID]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	profile, ok := users[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	return *profile, nil
}

// Rank returns the user's 1-based position on the guild leaderboard.
func (e *Engine) Rank(guildID, userID string) (int, error) {
	e.mu.Lock()
	entries := e.leaderboardLocked(guildID)
	e.mu.Unlock()

	for _, entry := range entries {
		if entry.UserID == userID {
			return entry.Rank, nil
		}
	}
	return 0, domain.ErrNotFound
}

// Leaderboard returns one page of the guild ranking (XP descending) and
// the total page count. Pages are 1-based.
func (e *Engine) Leaderboard(guildID string, page, perPage int) ([]domain.LeaderboardEntry, int, error) {
	if page < 1 {
		return nil, 0, domain.Validationf("page", "must be at least 1")
	}
	if perPage < 1 {
		perPage = 10
	}

	e.mu.Lock()
	entries := e.leaderboardLocked(guildID)
	e.mu.Unlock()

	if len(entries) == 0 {
		return nil, 0, domain.ErrNotFound
	}

	totalPages := (len(entries) + perPage - 1) / perPage
	if page > totalPages {
		return nil, totalPages, domain.Validationf("page", "must be between 1 and %d", totalPages)
	}

	start := (page - 1) * perPage
	end := min(start+perPage, len(entries))
	return entries[start:end], totalPages, nil
}

func (e *Engine) leaderboardLocked(guildID string) []domain.LeaderboardEntry {
	users := e.data.Profiles[guildID]
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for userID, profile := range users {
		entries = append(entries, domain.LeaderboardEntry{
			UserID: userID,
			XP:     profile.XP,
			Level:  profile.Level,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Settings returns the guild's effective settings, defaults applied.
func (e *Engine) Settings(guildID string) domain.GuildSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settingsLocked(guildID)
}

// -- Settings mutators --

// SetXPRate updates the XP range and cooldown. A zero cooldown is
// allowed; the XP bounds must be positive with min <= max. On a
// validation failure the prior settings are left untouched.
func (e *Engine) SetXPRate(guildID string, xpMin, xpMax, cooldownSeconds int) error {
	if xpMin <= 0 {
		return domain.Validationf("min_xp", "must be positive, got %d", xpMin)
	}
	if xpMax <= 0 {
		return domain.Validationf("max_xp", "must be positive, got %d", xpMax)
	}
	if xpMin > xpMax {
		return domain.Validationf("min_xp", "cannot exceed max_xp (%d > %d)", xpMin, xpMax)
	}
	if cooldownSeconds < 0 {
		return domain.Validationf("cooldown", "cannot be negative, got %d", cooldownSeconds)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	settings := e.mutableSettingsLocked(guildID)
	settings.XPMin = xpMin
	settings.XPMax = xpMax
	settings.CooldownSeconds = cooldownSeconds
	e.dirty[concernSettings] = true
	return nil
}

// SetEnabled toggles the whole leveling system for a guild.
func (e *Engine) SetEnabled(guildID string, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mutableSettingsLocked(guildID).Enabled = enabled
	e.dirty[concernSettings] = true
}

// SetAnnouncements toggles level-up announcements for a guild.
func (e *Engine) SetAnnouncements(guildID string, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mutableSettingsLocked(guildID).Announcements = enabled
	e.dirty[concernSettings] = true
}

// SetAnnouncementChannel routes announcements to the given channel, or
// back to the triggering channel when channelID is empty.
func (e *Engine) SetAnnouncementChannel(guildID, channelID string) error {
	if channelID != "" && !e.guild.ChannelExists(guildID, channelID) {
		return domain.Validationf("channel", "not found or not accessible")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.mutableSettingsLocked(guildID).AnnounceChannel = channelID
	e.dirty[concernSettings] = true
	return nil
}

// -- Reward table --

// AddReward maps a level threshold to a role. Thresholds are unique;
// re-adding an existing threshold replaces its role.
func (e *Engine) AddReward(guildID string, threshold int, roleID string) error {
	if threshold < 1 {
		return domain.Validationf("level", "must be at least 1, got %d", threshold)
	}
	if roleID == "" {
		return domain.Validationf("role", "cannot be empty")
	}
	if !e.guild.RoleExists(guildID, roleID) {
		return domain.Validationf("role", "not found in guild")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	table := e.data.Rewards[guildID]
	if table == nil {
		table = make(domain.RewardTable)
		e.data.Rewards[guildID] = table
	}
	table[threshold] = roleID
	e.dirty[concernRewards] = true
	return nil
}

// RemoveReward deletes the reward at a threshold, returning the role it
// pointed at.
func (e *Engine) RemoveReward(guildID string, threshold int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	table := e.data.Rewards[guildID]
	roleID, ok := table[threshold]
	if !ok {
		return "", domain.ErrNotFound
	}

	delete(table, threshold)
	if len(table) == 0 {
		delete(e.data.Rewards, guildID)
	}
	e.dirty[concernRewards] = true
	return roleID, nil
}

// Rewards returns a copy of the guild's reward table.
func (e *Engine) Rewards(guildID string) domain.RewardTable {
	e.mu.Lock()
	defer e.mu.Unlock()

	table := make(domain.RewardTable, len(e.data.Rewards[guildID]))
	for threshold, roleID := range e.data.Rewards[guildID] {
		table[threshold] = roleID
	}
	return table
}

// -- Level-up message templates --

// SetTemplate stores a level-up message template. Threshold 0 sets the
// guild default.
func (e *Engine) SetTemplate(guildID string, threshold int, template string) error {
	if threshold < 0 {
		return domain.Validationf("level", "cannot be negative")
	}
	if template == "" {
		return domain.Validationf("message", "cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	templates := e.data.Templates[guildID]
	if templates == nil {
		templates = make(domain.Templates)
		e.data.Templates[guildID] = templates
	}
	templates[threshold] = template
	e.dirty[concernTemplates] = true
	return nil
}

// ClearTemplate removes a stored template.
func (e *Engine) ClearTemplate(guildID string, threshold int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	templates := e.data.Templates[guildID]
	if _, ok := templates[threshold]; !ok {
		return domain.ErrNotFound
	}

	delete(templates, threshold)
	if len(templates) == 0 {
		delete(e.data.Templates, guildID)
	}
	e.dirty[concernTemplates] = true
	return nil
}

// Templates returns a copy of the guild's template set.
func (e *Engine) Templates(guildID string) domain.Templates {
	e.mu.Lock()
	defer e.mu.Unlock()

	templates := make(domain.Templates, len(e.data.Templates[guildID]))
	for threshold, template := range e.data.Templates[guildID] {
		templates[threshold] = template
	}
	return templates
}

// templateLocked resolves the template for a level: the most specific
// threshold at or below the level wins, then the guild default
// (threshold 0), then the built-in default.
func (e *Engine) templateLocked(guildID string, level int) string {
	templates := e.data.Templates[guildID]

	best := -1
	for threshold := range templates {
		if threshold >= 1 && threshold <= level && threshold > best {
			best = threshold
		}
	}
	if best >= 1 {
		return templates[best]
	}
	if template, ok := templates[0]; ok {
		return template
	}
	return formatting.DefaultLevelUpTemplate
}

// -- Card backgrounds --

// SetBackground stores a custom card background reference for a user.
func (e *Engine) SetBackground(guildID, userID, ref string) error {
	if ref == "" {
		return domain.Validationf("background", "cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	backgrounds := e.data.Backgrounds[guildID]
	if backgrounds == nil {
		backgrounds = make(map[string]string)
		e.data.Backgrounds[guildID] = backgrounds
	}
	backgrounds[userID] = ref
	e.dirty[concernBackgrounds] = true
	return nil
}

// ClearBackground removes the user's custom background, falling back to
// the default card background.
func (e *Engine) ClearBackground(guildID, userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	backgrounds := e.data.Backgrounds[guildID]
	delete(backgrounds, userID)
	if len(backgrounds) == 0 {
		delete(e.data.Backgrounds, guildID)
	}
	e.dirty[concernBackgrounds] = true
}

// ResetBackgrounds wipes every custom card background in the guild and
// flushes immediately, returning how many references were removed.
func (e *Engine) ResetBackgrounds(ctx context.Context, guildID string) (int, error) {
	e.mu.Lock()
	removed := len(e.data.Backgrounds[guildID])
	if removed == 0 {
		e.mu.Unlock()
		return 0, nil
	}
	delete(e.data.Backgrounds, guildID)
	e.dirty[concernBackgrounds] = true
	e.mu.Unlock()

	if err := e.Flush(ctx); err != nil {
		return removed, fmt.Errorf("flush after background reset: %w", err)
	}
	return removed, nil
}

// Background returns the user's custom background reference, if any.
func (e *Engine) Background(guildID, userID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ref, ok := e.data.Backgrounds[guildID][userID]
	return ref, ok
}

// -- internal helpers --

func (e *Engine) settingsLocked(guildID string) domain.GuildSettings {
	if settings, ok := e.data.Settings[guildID]; ok {
		return *settings
	}
	return domain.DefaultSettings()
}

func (e *Engine) mutableSettingsLocked(guildID string) *domain.GuildSettings {
	settings, ok := e.data.Settings[guildID]
	if !ok {
		defaults := domain.DefaultSettings()
		settings = &defaults
		e.data.Settings[guildID] = settings
	}
	return settings
}

func (e *Engine) profileLocked(guildID, userID string) *domain.UserProfile {
	users, ok := e.data.Profiles[guildID]
	if !ok {
		users = make(map[string]*domain.UserProfile)
		e.data.Profiles[guildID] = users
	}
	profile, ok := users[userID]
	if !ok {
		profile = &domain.UserProfile{}
		users[userID] = profile
	}
	return profile
}
