package leveling

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"guild-leveling-bot/internal/core/domain"
	"guild-leveling-bot/internal/metrics"
)

// Diagnose scans one guild's state for references the platform no
// longer knows about and repairs each finding deterministically:
// profiles of departed members are dropped, dangling reward-table
// entries are removed, an invalid announcement channel is cleared, and
// cached levels are re-derived from XP. Running it twice in a row
// reports nothing the second time.
func (e *Engine) Diagnose(ctx context.Context, guildID string) (*domain.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &domain.Report{GuildID: guildID, RanAt: e.clock.Now()}

	users := e.data.Profiles[guildID]
	report.ProfilesScanned = len(users)
	for userID, profile := range users {
		exists, err := e.guild.MemberExists(ctx, guildID, userID)
		if err != nil {
			// Indeterminate; never drop a profile on a network error.
			slog.Warn("Diagnose could not verify member", "guild_id", guildID, "user_id", userID, "error", err)
			continue
		}
		if !exists {
			report.Findings = append(report.Findings, domain.Finding{
				Issue:  "orphaned-user",
				Action: "removed profile",
				Before: fmt.Sprintf("user %s: xp=%d level=%d", userID, profile.XP, profile.Level),
			})
			metrics.DiagnoseFixes.WithLabelValues("orphaned-user").Inc()
			delete(users, userID)
			e.dirty[concernProfiles] = true
			continue
		}

		if profile.XP < 0 {
			report.Findings = append(report.Findings, domain.Finding{
				Issue:  "negative-xp",
				Action: "reset xp to 0",
				Before: fmt.Sprintf("user %s: xp=%d", userID, profile.XP),
			})
			metrics.DiagnoseFixes.WithLabelValues("negative-xp").Inc()
			profile.XP = 0
			e.dirty[concernProfiles] = true
		}

		if derived := LevelForXP(profile.XP); profile.Level != derived {
			report.Findings = append(report.Findings, domain.Finding{
				Issue:  "level-mismatch",
				Action: fmt.Sprintf("recomputed level to %d", derived),
				Before: fmt.Sprintf("user %s: xp=%d level=%d", userID, profile.XP, profile.Level),
			})
			metrics.DiagnoseFixes.WithLabelValues("level-mismatch").Inc()
			profile.Level = derived
			e.dirty[concernProfiles] = true
		}
	}
	if len(users) == 0 {
		delete(e.data.Profiles, guildID)
	}

	table := e.data.Rewards[guildID]
	for threshold, roleID := range table {
		if e.guild.RoleExists(guildID, roleID) {
			continue
		}
		report.Findings = append(report.Findings, domain.Finding{
			Issue:  "orphaned-role",
			Action: fmt.Sprintf("removed reward at level %d", threshold),
			Before: fmt.Sprintf("level %d -> role %s", threshold, roleID),
		})
		metrics.DiagnoseFixes.WithLabelValues("orphaned-role").Inc()
		delete(table, threshold)
		e.dirty[concernRewards] = true
	}
	if len(table) == 0 {
		delete(e.data.Rewards, guildID)
	}

	if settings, ok := e.data.Settings[guildID]; ok && settings.AnnounceChannel != "" {
		if !e.guild.ChannelExists(guildID, settings.AnnounceChannel) {
			report.Findings = append(report.Findings, domain.Finding{
				Issue:  "orphaned-channel",
				Action: "cleared announcement channel",
				Before: fmt.Sprintf("channel %s", settings.AnnounceChannel),
			})
			metrics.DiagnoseFixes.WithLabelValues("orphaned-channel").Inc()
			settings.AnnounceChannel = ""
			e.dirty[concernSettings] = true
		}
	}

	slog.Info("Diagnose completed",
		"guild_id", guildID, "profiles_scanned", report.ProfilesScanned, "findings", len(report.Findings))
	return report, nil
}

// Backup exports one guild's complete leveling state as an immutable
// versioned snapshot. Live state is never mutated; the copies are deep.
func (e *Engine) Backup(guildID string) *domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := &domain.Snapshot{
		FormatVersion: domain.SnapshotFormatVersion,
		ExportedAt:    e.clock.Now(),
		GuildID:       guildID,
		Profiles:      make(map[string]*domain.UserProfile, len(e.data.Profiles[guildID])),
		Rewards:       make(domain.RewardTable, len(e.data.Rewards[guildID])),
		Templates:     make(domain.Templates, len(e.data.Templates[guildID])),
		Backgrounds:   make(map[string]string, len(e.data.Backgrounds[guildID])),
	}

	for userID, profile := range e.data.Profiles[guildID] {
		copied := *profile
		snapshot.Profiles[userID] = &copied
	}
	for threshold, roleID := range e.data.Rewards[guildID] {
		snapshot.Rewards[threshold] = roleID
	}
	for threshold, template := range e.data.Templates[guildID] {
		snapshot.Templates[threshold] = template
	}
	for userID, ref := range e.data.Backgrounds[guildID] {
		snapshot.Backgrounds[userID] = ref
	}
	if settings, ok := e.data.Settings[guildID]; ok {
		copied := *settings
		snapshot.Settings = &copied
	}

	return snapshot
}

// Restore replaces one guild's state with a snapshot's content and
// flushes immediately. The snapshot itself is left untouched.
func (e *Engine) Restore(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return domain.Validationf("snapshot", "cannot be nil")
	}
	if snapshot.FormatVersion != domain.SnapshotFormatVersion {
		return domain.Validationf("snapshot", "unsupported format version %d", snapshot.FormatVersion)
	}
	if snapshot.GuildID == "" {
		return domain.Validationf("snapshot", "missing guild id")
	}

	e.mu.Lock()
	guildID := snapshot.GuildID

	delete(e.data.Profiles, guildID)
	if len(snapshot.Profiles) > 0 {
		users := make(map[string]*domain.UserProfile, len(snapshot.Profiles))
		for userID, profile := range snapshot.Profiles {
			copied := *profile
			copied.Level = LevelForXP(copied.XP)
			users[userID] = &copied
		}
		e.data.Profiles[guildID] = users
	}

	delete(e.data.Rewards, guildID)
	if len(snapshot.Rewards) > 0 {
		table := make(domain.RewardTable, len(snapshot.Rewards))
		for threshold, roleID := range snapshot.Rewards {
			table[threshold] = roleID
		}
		e.data.Rewards[guildID] = table
	}

	delete(e.data.Templates, guildID)
	if len(snapshot.Templates) > 0 {
		templates := make(domain.Templates, len(snapshot.Templates))
		for threshold, template := range snapshot.Templates {
			templates[threshold] = template
		}
		e.data.Templates[guildID] = templates
	}

	delete(e.data.Backgrounds, guildID)
	if len(snapshot.Backgrounds) > 0 {
		backgrounds := make(map[string]string, len(snapshot.Backgrounds))
		for userID, ref := range snapshot.Backgrounds {
			backgrounds[userID] = ref
		}
		e.data.Backgrounds[guildID] = backgrounds
	}

	delete(e.data.Settings, guildID)
	if snapshot.Settings != nil {
		copied := *snapshot.Settings
		e.data.Settings[guildID] = &copied
	}

	e.markAllDirtyLocked()
	e.mu.Unlock()

	slog.Info("Restored guild state from snapshot", "guild_id", guildID, "profiles", len(snapshot.Profiles))
	return e.Flush(ctx)
}

// RequestReset starts the two-step destructive protocol: it hands out a
// time-limited confirmation token without touching any state. An empty
// userID requests a full-guild reset.
func (e *Engine) RequestReset(guildID, userID string) (domain.Confirmation, error) {
	if guildID == "" {
		return domain.Confirmation{}, domain.Validationf("guild", "cannot be empty")
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return domain.Confirmation{}, fmt.Errorf("generate confirmation token: %w", err)
	}

	confirmation := domain.Confirmation{
		Token:     hex.EncodeToString(raw),
		GuildID:   guildID,
		UserID:    userID,
		ExpiresAt: e.clock.Now().Add(e.cfg.ConfirmTTL),
	}

	e.mu.Lock()
	e.purgeExpiredLocked()
	e.pending[confirmation.Token] = confirmation
	e.mu.Unlock()

	return confirmation, nil
}

// ConfirmReset consumes a confirmation token and performs the wipe it
// authorized, flushing to the store immediately to bound data loss.
// There is no undo; operators are expected to Backup first. Returns the
// number of profiles removed.
func (e *Engine) ConfirmReset(ctx context.Context, token string) (int, error) {
	e.mu.Lock()

	confirmation, ok := e.pending[token]
	if !ok || e.clock.Now().After(confirmation.ExpiresAt) {
		delete(e.pending, token)
		e.mu.Unlock()
		return 0, domain.ErrConfirmationRequired
	}
	delete(e.pending, token)

	removed := 0
	users := e.data.Profiles[confirmation.GuildID]
	if confirmation.UserID == "" {
		removed = len(users)
		delete(e.data.Profiles, confirmation.GuildID)
	} else if _, ok := users[confirmation.UserID]; ok {
		removed = 1
		delete(users, confirmation.UserID)
		if len(users) == 0 {
			delete(e.data.Profiles, confirmation.GuildID)
		}
	}

	if removed > 0 {
		e.dirty[concernProfiles] = true
	}
	e.mu.Unlock()

	slog.Info("Reset performed",
		"guild_id", confirmation.GuildID, "user_id", confirmation.UserID, "profiles_removed", removed)

	if err := e.Flush(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

func (e *Engine) purgeExpiredLocked() {
	now := e.clock.Now()
	for token, confirmation := range e.pending {
		if now.After(confirmation.ExpiresAt) {
			delete(e.pending, token)
		}
	}
}
