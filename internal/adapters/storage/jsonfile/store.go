// Package jsonfile persists the leveling state as one JSON document per
// concern under a data directory. Writes go through a temp file and
// rename; unreadable documents degrade to empty state so a corrupt file
// never takes the bot down.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"guild-leveling-bot/internal/core/domain"
)

const (
	profilesFile    = "leveling.json"
	rewardsFile     = "level_roles.json"
	templatesFile   = "level_messages.json"
	backgroundsFile = "level_backgrounds.json"
	settingsFile    = "leveling_settings.json"
)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) LoadAll(_ context.Context) (*domain.DataSet, error) {
	data := domain.NewDataSet()

	if m, ok := loadDocument[map[string]map[string]*domain.UserProfile](s.path(profilesFile)); ok {
		data.Profiles = m
	}
	if m, ok := loadDocument[map[string]domain.RewardTable](s.path(rewardsFile)); ok {
		data.Rewards = m
	}
	if m, ok := loadDocument[map[string]domain.Templates](s.path(templatesFile)); ok {
		data.Templates = m
	}
	if m, ok := loadDocument[map[string]map[string]string](s.path(backgroundsFile)); ok {
		data.Backgrounds = m
	}
	if m, ok := loadDocument[map[string]*domain.GuildSettings](s.path(settingsFile)); ok {
		data.Settings = m
	}

	return data, nil
}

func (s *Store) SaveProfiles(_ context.Context, profiles map[string]map[string]*domain.UserProfile) error {
	return s.writeDocument(profilesFile, profiles)
}

func (s *Store) SaveRewards(_ context.Context, rewards map[string]domain.RewardTable) error {
	return s.writeDocument(rewardsFile, rewards)
}

func (s *Store) SaveTemplates(_ context.Context, templates map[string]domain.Templates) error {
	return s.writeDocument(templatesFile, templates)
}

func (s *Store) SaveBackgrounds(_ context.Context, backgrounds map[string]map[string]string) error {
	return s.writeDocument(backgroundsFile, backgrounds)
}

func (s *Store) SaveSettings(_ context.Context, settings map[string]*domain.GuildSettings) error {
	return s.writeDocument(settingsFile, settings)
}

func (s *Store) Close() {}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// loadDocument reads one concern. A missing or empty file is a fresh
// install; a malformed one is logged and discarded entirely, a
// recoverable condition rather than a fatal one.
func loadDocument[T any](path string) (T, bool) {
	var doc T

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, false
	}
	if err != nil {
		slog.Warn("Failed to read document, falling back to empty state", "file", path, "error", err)
		return doc, false
	}
	if len(raw) == 0 {
		return doc, false
	}

	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("Failed to decode document, falling back to empty state", "file", path, "error", err)
		var zero T
		return zero, false
	}

	return doc, true
}

func (s *Store) writeDocument(name string, data any) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
