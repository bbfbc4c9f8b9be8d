// Package postgres is the database-backed alternative to the flat-file
// store, selected when DATABASE_URL is set. It persists the same five
// concerns; each save replaces the concern's rows wholesale inside a
// transaction, matching the document semantics of the JSON store.
package postgres

import (
	"context"
	"fmt"

	"guild-leveling-bot/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// database is the subset of pgxpool.Pool the store uses.
type database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

type Store struct {
	db database
}

func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS leveling_profiles (
	guild_id     TEXT   NOT NULL,
	user_id      TEXT   NOT NULL,
	xp           BIGINT NOT NULL,
	level        INT    NOT NULL,
	last_message BIGINT NOT NULL,
	PRIMARY KEY (guild_id, user_id)
);
CREATE TABLE IF NOT EXISTS level_roles (
	guild_id  TEXT NOT NULL,
	threshold INT  NOT NULL,
	role_id   TEXT NOT NULL,
	PRIMARY KEY (guild_id, threshold)
);
CREATE TABLE IF NOT EXISTS level_messages (
	guild_id  TEXT NOT NULL,
	threshold INT  NOT NULL,
	template  TEXT NOT NULL,
	PRIMARY KEY (guild_id, threshold)
);
CREATE TABLE IF NOT EXISTS level_backgrounds (
	guild_id TEXT NOT NULL,
	user_id  TEXT NOT NULL,
	ref      TEXT NOT NULL,
	PRIMARY KEY (guild_id, user_id)
);
CREATE TABLE IF NOT EXISTS leveling_settings (
	guild_id         TEXT PRIMARY KEY,
	enabled          BOOLEAN NOT NULL,
	announcements    BOOLEAN NOT NULL,
	xp_min           INT     NOT NULL,
	xp_max           INT     NOT NULL,
	cooldown_seconds INT     NOT NULL,
	announce_channel TEXT    NOT NULL DEFAULT ''
);`

	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) LoadAll(ctx context.Context) (*domain.DataSet, error) {
	data := domain.NewDataSet()

	rows, err := s.db.Query(ctx, `SELECT guild_id, user_id, xp, level, last_message FROM leveling_profiles`)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	for rows.Next() {
		var guildID, userID string
		profile := &domain.UserProfile{}
		if err := rows.Scan(&guildID, &userID, &profile.XP, &profile.Level, &profile.LastMessage); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		users, ok := data.Profiles[guildID]
		if !ok {
			users = make(map[string]*domain.UserProfile)
			data.Profiles[guildID] = users
		}
		users[userID] = profile
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT guild_id, threshold, role_id FROM level_roles`)
	if err != nil {
		return nil, fmt.Errorf("load rewards: %w", err)
	}
	for rows.Next() {
		var guildID, roleID string
		var threshold int
		if err := rows.Scan(&guildID, &threshold, &roleID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		table, ok := data.Rewards[guildID]
		if !ok {
			table = make(domain.RewardTable)
			data.Rewards[guildID] = table
		}
		table[threshold] = roleID
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rewards: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT guild_id, threshold, template FROM level_messages`)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	for rows.Next() {
		var guildID, template string
		var threshold int
		if err := rows.Scan(&guildID, &threshold, &template); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates, ok := data.Templates[guildID]
		if !ok {
			templates = make(domain.Templates)
			data.Templates[guildID] = templates
		}
		templates[threshold] = template
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT guild_id, user_id, ref FROM level_backgrounds`)
	if err != nil {
		return nil, fmt.Errorf("load backgrounds: %w", err)
	}
	for rows.Next() {
		var guildID, userID, ref string
		if err := rows.Scan(&guildID, &userID, &ref); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan background: %w", err)
		}
		backgrounds, ok := data.Backgrounds[guildID]
		if !ok {
			backgrounds = make(map[string]string)
			data.Backgrounds[guildID] = backgrounds
		}
		backgrounds[userID] = ref
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load backgrounds: %w", err)
	}

	rows, err = s.db.Query(ctx, `SELECT guild_id, enabled, announcements, xp_min, xp_max, cooldown_seconds, announce_channel FROM leveling_settings`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	for rows.Next() {
		var guildID string
		settings := &domain.GuildSettings{}
		if err := rows.Scan(&guildID, &settings.Enabled, &settings.Announcements,
			&settings.XPMin, &settings.XPMax, &settings.CooldownSeconds, &settings.AnnounceChannel); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		data.Settings[guildID] = settings
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return data, nil
}

func (s *Store) SaveProfiles(ctx context.Context, profiles map[string]map[string]*domain.UserProfile) error {
	return s.replace(ctx, "leveling_profiles", func(batch *pgx.Batch) {
		for guildID, users := range profiles {
			for userID, profile := range users {
				batch.Queue(
					`INSERT INTO leveling_profiles (guild_id, user_id, xp, level, last_message) VALUES ($1, $2, $3, $4, $5)`,
					guildID, userID, profile.XP, profile.Level, profile.LastMessage,
				)
			}
		}
	})
}

func (s *Store) SaveRewards(ctx context.Context, rewards map[string]domain.RewardTable) error {
	return s.replace(ctx, "level_roles", func(batch *pgx.Batch) {
		for guildID, table := range rewards {
			for threshold, roleID := range table {
				batch.Queue(
					`INSERT INTO level_roles (guild_id, threshold, role_id) VALUES ($1, $2, $3)`,
					guildID, threshold, roleID,
				)
			}
		}
	})
}

func (s *Store) SaveTemplates(ctx context.Context, templates map[string]domain.Templates) error {
	return s.replace(ctx, "level_messages", func(batch *pgx.Batch) {
		for guildID, set := range templates {
			for threshold, template := range set {
				batch.Queue(
					`INSERT INTO level_messages (guild_id, threshold, template) VALUES ($1, $2, $3)`,
					guildID, threshold, template,
				)
			}
		}
	})
}

func (s *Store) SaveBackgrounds(ctx context.Context, backgrounds map[string]map[string]string) error {
	return s.replace(ctx, "level_backgrounds", func(batch *pgx.Batch) {
		for guildID, users := range backgrounds {
			for userID, ref := range users {
				batch.Queue(
					`INSERT INTO level_backgrounds (guild_id, user_id, ref) VALUES ($1, $2, $3)`,
					guildID, userID, ref,
				)
			}
		}
	})
}

func (s *Store) SaveSettings(ctx context.Context, settings map[string]*domain.GuildSettings) error {
	return s.replace(ctx, "leveling_settings", func(batch *pgx.Batch) {
		for guildID, gs := range settings {
			batch.Queue(
				`INSERT INTO leveling_settings (guild_id, enabled, announcements, xp_min, xp_max, cooldown_seconds, announce_channel)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				guildID, gs.Enabled, gs.Announcements, gs.XPMin, gs.XPMax, gs.CooldownSeconds, gs.AnnounceChannel,
			)
		}
	})
}

// replace swaps a concern's rows for the in-memory view inside one
// transaction, so readers never observe a half-written concern.
func (s *Store) replace(ctx context.Context, table string, enqueue func(*pgx.Batch)) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	batch := &pgx.Batch{}
	enqueue(batch)
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save %s: %w", table, err)
	}
	return nil
}
