// Package types contains the derived records produced from the guild datasets.
// They are computed on demand and never persisted.
package types

import (
	"math"

	"github.com/okian/guildstats/internal/domain/model"
)

// MemberTotal pairs a member with the points of the achievements they hold.
type MemberTotal struct {
	CharacterName string `json:"characterName"`
	TotalPoints   int    `json:"totalPoints"`
}

// AchievementCompletion reports how much of the guild holds an achievement.
type AchievementCompletion struct {
	AchievementName       string `json:"achievementName"`
	EarnedByCount         int    `json:"earnedByCount"`
	CompletionRatePercent int    `json:"completionRatePercent"`
}

// GuildAggregate sums counters across every member.
type GuildAggregate struct {
	Members            int `json:"members"`
	HK                 int `json:"hk"`
	Quests             int `json:"quests"`
	Raids              int `json:"raids"`
	Points             int `json:"points"`
	Pets               int `json:"pets"`
	Titles             int `json:"titles"`
	Factions           int `json:"factions"`
	AchievementsEarned int `json:"achievementsEarned"`
}

// Add returns the field-wise sum of a and b. Sums saturate at the int range
// instead of wrapping.
func (a GuildAggregate) Add(b GuildAggregate) GuildAggregate {
	return GuildAggregate{
		Members:            SaturatingAdd(a.Members, b.Members),
		HK:                 SaturatingAdd(a.HK, b.HK),
		Quests:             SaturatingAdd(a.Quests, b.Quests),
		Raids:              SaturatingAdd(a.Raids, b.Raids),
		Points:             SaturatingAdd(a.Points, b.Points),
		Pets:               SaturatingAdd(a.Pets, b.Pets),
		Titles:             SaturatingAdd(a.Titles, b.Titles),
		Factions:           SaturatingAdd(a.Factions, b.Factions),
		AchievementsEarned: SaturatingAdd(a.AchievementsEarned, b.AchievementsEarned),
	}
}

// SaturatingAdd returns a+b clamped to [math.MinInt, math.MaxInt].
func SaturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

// LeaderboardEntry is one row of a ranked member listing.
type LeaderboardEntry struct {
	Rank            int         `json:"rank"`
	CharacterName   string      `json:"characterName"`
	Class           string      `json:"class"`
	Race            string      `json:"race"`
	GuildRank       string      `json:"guildRank"`
	Stats           model.Stats `json:"stats"`
	Pets            int         `json:"pets"`
	Titles          int         `json:"titles"`
	FactionsExalted int         `json:"factionsExalted"`
	TotalPoints     int         `json:"totalPoints"`
}

// AchievementView is a catalog entry decorated with completion data.
type AchievementView struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Category              string   `json:"category"`
	Points                int      `json:"points"`
	EarnedByCount         int      `json:"earnedByCount"`
	CompletionRatePercent int      `json:"completionRatePercent"`
	EarnedBy              []string `json:"earnedBy"`
}

// AchievementsSummary is the header of the achievements listing.
type AchievementsSummary struct {
	TotalAchievements int     `json:"totalAchievements"`
	EarnedByMembers   int     `json:"earnedByMembers"`
	AveragePerMember  float64 `json:"averagePerMember"`
}

// Home is the landing view.
type Home struct {
	SnapshotID string             `json:"snapshotId"`
	Aggregate  GuildAggregate     `json:"aggregate"`
	TopMembers []LeaderboardEntry `json:"topMembers"`
	Preview    []AchievementView  `json:"achievementsPreview"`
}

// Leaderboard is the full ranked listing.
type Leaderboard struct {
	SnapshotID string             `json:"snapshotId"`
	SortKey    string             `json:"sort"`
	Direction  string             `json:"dir"`
	Entries    []LeaderboardEntry `json:"entries"`
}

// Achievements is the catalog listing filtered by category.
type Achievements struct {
	SnapshotID   string              `json:"snapshotId"`
	Categories   []string            `json:"categories"`
	Category     string              `json:"category"`
	Summary      AchievementsSummary `json:"summary"`
	Achievements []AchievementView   `json:"achievements"`
}

// Profile is a single member with their resolved achievements.
type Profile struct {
	SnapshotID   string              `json:"snapshotId"`
	Member       model.Member        `json:"member"`
	TotalPoints  int                 `json:"totalPoints"`
	Achievements []model.Achievement `json:"achievements"`
}
