package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation constants define acceptable bounds for configuration values
const (
	minTokenLength = 50 // Discord tokens are typically 50+ characters

	minAutosaveInterval = 10 * time.Second // flushing faster than this just burns disk
	maxAutosaveInterval = 24 * time.Hour

	minConfirmTTL = 5 * time.Second
	maxConfirmTTL = 10 * time.Minute
)

// Validate checks the configuration values and returns all failures at
// once, joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error

	if err := c.validateToken(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateAutosaveInterval(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateConfirmTTL(); err != nil {
		errs = append(errs, err)
	}

	if err := c.validateStorage(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %w", errors.Join(errs...))
	}

	return nil
}

func (c *Config) validateToken() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required but not set")
	}

	if len(c.Token) < minTokenLength {
		return fmt.Errorf(
			"DISCORD_TOKEN appears invalid (too short: %d chars, expected %d+)",
			len(c.Token), minTokenLength,
		)
	}

	return nil
}

func (c *Config) validateAutosaveInterval() error {
	if c.AutosaveInterval < minAutosaveInterval {
		return fmt.Errorf(
			"AUTOSAVE_INTERVAL must be at least %v, got %v (hint: recommended range is 1m-10m)",
			minAutosaveInterval, c.AutosaveInterval,
		)
	}

	if c.AutosaveInterval > maxAutosaveInterval {
		return fmt.Errorf(
			"AUTOSAVE_INTERVAL must be at most %v, got %v",
			maxAutosaveInterval, c.AutosaveInterval,
		)
	}

	return nil
}

func (c *Config) validateConfirmTTL() error {
	if c.ConfirmTTL < minConfirmTTL {
		return fmt.Errorf(
			"CONFIRM_TTL must be at least %v to leave time for the confirming call, got %v",
			minConfirmTTL, c.ConfirmTTL,
		)
	}

	if c.ConfirmTTL > maxConfirmTTL {
		return fmt.Errorf(
			"CONFIRM_TTL must be at most %v, got %v",
			maxConfirmTTL, c.ConfirmTTL,
		)
	}

	return nil
}

func (c *Config) validateStorage() error {
	if c.DatabaseURL == "" && c.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty when DATABASE_URL is not set")
	}

	return nil
}
