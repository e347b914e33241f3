// Package fixtures generates synthetic guild datasets and checks a running
// server against a local computation over the same data.
package fixtures

import (
	"fmt"

	"github.com/okian/guildstats/internal/domain/model"
)

// Default generator sizes.
const (
	DefaultMembers      = 25
	DefaultAchievements = 40
	DefaultSeed         = 1
)

// Config holds the generator parameters.
type Config struct {
	Members      int   // Number of members to generate
	Achievements int   // Number of catalog entries to generate
	Seed         int64 // Same seed, same dataset
	// UnknownRatePercent is the chance, per member, of holding one
	// achievement that is missing from the catalog.
	UnknownRatePercent int
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		Members:            DefaultMembers,
		Achievements:       DefaultAchievements,
		Seed:               DefaultSeed,
		UnknownRatePercent: 10,
	}
}

// Validate checks the sizes.
func (c Config) Validate() error {
	switch {
	case c.Members < 0:
		return fmt.Errorf("%w: members must be >= 0", ErrInvalidConfig)
	case c.Achievements < 0:
		return fmt.Errorf("%w: achievements must be >= 0", ErrInvalidConfig)
	case c.UnknownRatePercent < 0 || c.UnknownRatePercent > 100:
		return fmt.Errorf("%w: unknown rate must be within 0..100", ErrInvalidConfig)
	}
	return nil
}

// Dataset is a generated members/achievements pair.
type Dataset struct {
	ID           string
	Members      []model.Member
	Achievements []model.Achievement
}
