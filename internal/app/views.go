package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/guildstats/internal/domain/model"
	"github.com/okian/guildstats/internal/domain/stats"
	"github.com/okian/guildstats/internal/domain/types"
	"github.com/okian/guildstats/pkg/metrics"
)

// Defaults for the leaderboard query parameters.
const (
	DefaultSortKey   = stats.SortTotal
	DefaultDirection = stats.Desc
)

func observeView(view string, start time.Time) {
	metrics.RecordViewLatency(view, float64(time.Since(start).Microseconds())/1000)
}

// Home returns the guild aggregate, the top members and an achievements
// preview.
func (s *Service) Home(ctx context.Context) (types.Home, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return types.Home{}, err
	}
	defer observeView("home", time.Now())

	top, err := stats.TopNByPoints(snap.Members, snap.Achievements, s.topN)
	if err != nil {
		return types.Home{}, err
	}
	preview := snap.Achievements[:min(s.previewSize, len(snap.Achievements))]

	return types.Home{
		SnapshotID: snap.ID,
		Aggregate:  stats.GuildAggregate(snap.Members, snap.Achievements),
		TopMembers: leaderboardEntries(top, snap.Achievements),
		Preview:    achievementViews(preview, snap.Members),
	}, nil
}

// Leaderboard ranks every member. Empty sort and dir fall back to
// DefaultSortKey and DefaultDirection.
func (s *Service) Leaderboard(ctx context.Context, sortKey, dir string) (types.Leaderboard, error) {
	key, direction := DefaultSortKey, DefaultDirection
	var err error
	if sortKey != "" {
		if key, err = stats.ParseSortKey(sortKey); err != nil {
			return types.Leaderboard{}, err
		}
	}
	if dir != "" {
		if direction, err = stats.ParseDirection(dir); err != nil {
			return types.Leaderboard{}, err
		}
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return types.Leaderboard{}, err
	}
	defer observeView("leaderboard", time.Now())

	ranked, err := stats.RankMembers(snap.Members, snap.Achievements, key, direction)
	if err != nil {
		return types.Leaderboard{}, err
	}
	return types.Leaderboard{
		SnapshotID: snap.ID,
		SortKey:    string(key),
		Direction:  string(direction),
		Entries:    leaderboardEntries(ranked, snap.Achievements),
	}, nil
}

// Achievements lists the catalog entries in category with completion data.
// An empty category means stats.CategoryAll.
func (s *Service) Achievements(ctx context.Context, category string) (types.Achievements, error) {
	if category == "" {
		category = stats.CategoryAll
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return types.Achievements{}, err
	}
	defer observeView("achievements", time.Now())

	agg := stats.GuildAggregate(snap.Members, snap.Achievements)
	return types.Achievements{
		SnapshotID: snap.ID,
		Categories: append([]string{stats.CategoryAll}, stats.CategoriesOf(snap.Achievements)...),
		Category:   category,
		Summary: types.AchievementsSummary{
			TotalAchievements: len(snap.Achievements),
			EarnedByMembers:   agg.AchievementsEarned,
			AveragePerMember:  stats.AveragePerMember(snap.Members, snap.Achievements),
		},
		Achievements: achievementViews(stats.FilterByCategory(snap.Achievements, category), snap.Members),
	}, nil
}

// Profile returns one member by exact character name.
func (s *Service) Profile(ctx context.Context, characterName string) (types.Profile, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	defer observeView("profile", time.Now())

	m, ok := stats.FindMember(snap.Members, characterName)
	if !ok {
		return types.Profile{}, fmt.Errorf("%w: %q", ErrMemberNotFound, characterName)
	}
	return types.Profile{
		SnapshotID:   snap.ID,
		Member:       m,
		TotalPoints:  stats.MemberTotalPoints(m, snap.Achievements),
		Achievements: stats.ResolveMemberAchievements(m, snap.Achievements),
	}, nil
}

func leaderboardEntries(members []model.Member, achievements []model.Achievement) []types.LeaderboardEntry {
	totals := stats.MemberTotals(members, achievements)
	out := make([]types.LeaderboardEntry, len(members))
	for i, m := range members {
		out[i] = types.LeaderboardEntry{
			Rank:            i + 1,
			CharacterName:   m.CharacterName,
			Class:           m.Class,
			Race:            m.Race,
			GuildRank:       m.GuildRank,
			Stats:           m.Stats,
			Pets:            len(m.Pets),
			Titles:          len(m.Titles),
			FactionsExalted: len(m.FactionsExalted),
			TotalPoints:     totals[i].TotalPoints,
		}
	}
	return out
}

func achievementViews(achievements []model.Achievement, members []model.Member) []types.AchievementView {
	out := make([]types.AchievementView, len(achievements))
	for i, a := range achievements {
		c := stats.AchievementCompletion(a, members)
		holders := stats.EarnedBy(a, members)
		names := make([]string, len(holders))
		for j, h := range holders {
			names[j] = h.CharacterName
		}
		out[i] = types.AchievementView{
			Name:                  a.Name,
			Description:           a.Description,
			Category:              a.Category,
			Points:                a.Points,
			EarnedByCount:         c.EarnedByCount,
			CompletionRatePercent: c.CompletionRatePercent,
			EarnedBy:              names,
		}
	}
	return out
}
