package leveling

import (
	"math"
	"time"

	"guild-leveling-bot/internal/core/domain"
)

// XPForLevel returns the total cumulative XP needed to reach level.
// Level 0 needs nothing; from level 1 on the curve is 5L^2 + 50L + 100,
// strictly increasing.
func XPForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	l := int64(level)
	return 5*l*l + 50*l + 100
}

// LevelForXP returns the largest level whose cumulative requirement is
// covered by xp. Computed from the quadratic inverse and corrected by at
// most one step either way, so it stays O(1) for arbitrarily large xp.
func LevelForXP(xp int64) int {
	if xp < XPForLevel(1) {
		return 0
	}

	// 5L^2 + 50L + 100 <= xp  =>  L = (-50 + sqrt(500 + 20*xp)) / 10
	guess := int((-50 + math.Sqrt(float64(500+20*xp))) / 10)
	if guess < 1 {
		guess = 1
	}

	for XPForLevel(guess+1) <= xp {
		guess++
	}
	for guess > 0 && XPForLevel(guess) > xp {
		guess--
	}
	return guess
}

// GrantResult reports the outcome of one XP grant attempt.
type GrantResult struct {
	Granted   int
	LeveledUp bool
	OldLevel  int
	NewLevel  int
}

// Grant applies one cooldown-gated organic XP grant to profile. When the
// guild has leveling disabled or the cooldown has not elapsed, the
// profile is left untouched and Granted is zero. roll draws the random
// amount in [XPMin, XPMax].
func Grant(profile *domain.UserProfile, now time.Time, settings domain.GuildSettings, roll func(min, max int) int) GrantResult {
	if !settings.Enabled {
		return GrantResult{OldLevel: profile.Level, NewLevel: profile.Level}
	}

	if now.Unix()-profile.LastMessage < int64(settings.CooldownSeconds) {
		return GrantResult{OldLevel: profile.Level, NewLevel: profile.Level}
	}

	amount := roll(settings.XPMin, settings.XPMax)
	oldLevel := profile.Level

	profile.XP += int64(amount)
	profile.Level = LevelForXP(profile.XP)
	profile.LastMessage = now.Unix()

	return GrantResult{
		Granted:   amount,
		LeveledUp: profile.Level > oldLevel,
		OldLevel:  oldLevel,
		NewLevel:  profile.Level,
	}
}
