package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Token            string
	DataDir          string
	DatabaseURL      string
	AutosaveInterval time.Duration
	ConfirmTTL       time.Duration
	FontsDir         string
	MetricsAddr      string
	DiscordGuildID   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	token := readSecret("discord_token")
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is not set (via secret or env var)")
	}

	dbURL := readSecret("database_url")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	cfg := &Config{
		Token:            token,
		DataDir:          envString("DATA_DIR", "data"),
		DatabaseURL:      dbURL,
		AutosaveInterval: envDuration("AUTOSAVE_INTERVAL", 5*time.Minute),
		ConfirmTTL:       envDuration("CONFIRM_TTL", 60*time.Second),
		FontsDir:         envString("FONTS_DIR", "fonts"),
		MetricsAddr:      envString("METRICS_ADDR", ""),
		DiscordGuildID:   envString("DISCORD_GUILD_ID", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var secretsDir = "/run/secrets/"

func readSecret(name string) string {
	data, err := os.ReadFile(secretsDir + name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
