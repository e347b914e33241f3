// Package stats derives points, completion rates, aggregates and rankings
// from the members and achievements datasets.
//
// Every function is pure: inputs are never modified, outputs are freshly
// allocated, and identical inputs always give identical results. Achievement
// names are joined by exact, case-sensitive string match. Names a member
// lists that are missing from the catalog are ignored.
package stats

import (
	"math"
	"slices"

	"github.com/okian/guildstats/internal/domain/model"
	"github.com/okian/guildstats/internal/domain/types"
)

// CategoryAll is the filter value that selects every category.
const CategoryAll = "all"

// catalog indexes achievements by name, keeping the first entry per name.
type catalog struct {
	entries []model.Achievement
	first   map[string]int
}

func newCatalog(achievements []model.Achievement) catalog {
	c := catalog{entries: achievements, first: make(map[string]int, len(achievements))}
	for i, a := range achievements {
		if _, ok := c.first[a.Name]; !ok {
			c.first[a.Name] = i
		}
	}
	return c
}

// positions returns the catalog positions matched by member, ascending,
// each at most once.
func (c catalog) positions(member model.Member) []int {
	pos := make([]int, 0, len(member.Achievements))
	for _, name := range member.Achievements {
		i, ok := c.first[name]
		if !ok || slices.Contains(pos, i) {
			continue
		}
		pos = append(pos, i)
	}
	slices.Sort(pos)
	return pos
}

func (c catalog) points(member model.Member) int {
	total := 0
	for _, i := range c.positions(member) {
		total = types.SaturatingAdd(total, max(c.entries[i].Points, 0))
	}
	return total
}

// ResolveMemberAchievements returns the catalog entries the member holds, in
// catalog order.
func ResolveMemberAchievements(member model.Member, achievements []model.Achievement) []model.Achievement {
	c := newCatalog(achievements)
	pos := c.positions(member)
	out := make([]model.Achievement, 0, len(pos))
	for _, i := range pos {
		out = append(out, c.entries[i])
	}
	return out
}

// MemberTotalPoints sums the points of the member's resolved achievements.
func MemberTotalPoints(member model.Member, achievements []model.Achievement) int {
	return newCatalog(achievements).points(member)
}

// MemberTotals computes every member's points, in input order.
func MemberTotals(members []model.Member, achievements []model.Achievement) []types.MemberTotal {
	c := newCatalog(achievements)
	out := make([]types.MemberTotal, len(members))
	for i, m := range members {
		out[i] = types.MemberTotal{CharacterName: m.CharacterName, TotalPoints: c.points(m)}
	}
	return out
}

// AchievementCompletion counts the members holding achievement and the
// share of the guild they represent, rounded half up to a whole percent.
func AchievementCompletion(achievement model.Achievement, members []model.Member) types.AchievementCompletion {
	earned := 0
	for _, m := range members {
		if slices.Contains(m.Achievements, achievement.Name) {
			earned++
		}
	}
	return types.AchievementCompletion{
		AchievementName:       achievement.Name,
		EarnedByCount:         earned,
		CompletionRatePercent: percent(earned, len(members)),
	}
}

// percent is round(part/whole*100) in integer arithmetic; 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (part*200 + whole) / (2 * whole)
}

// EarnedBy returns the members holding achievement, in input order.
func EarnedBy(achievement model.Achievement, members []model.Member) []model.Member {
	out := make([]model.Member, 0)
	for _, m := range members {
		if slices.Contains(m.Achievements, achievement.Name) {
			out = append(out, m.Clone())
		}
	}
	return out
}

// GuildAggregate folds every member's counters, points and collection sizes
// into one total, starting from the zero aggregate.
func GuildAggregate(members []model.Member, achievements []model.Achievement) types.GuildAggregate {
	c := newCatalog(achievements)
	var acc types.GuildAggregate
	for _, m := range members {
		acc = acc.Add(types.GuildAggregate{
			Members:            1,
			HK:                 m.Stats.HK,
			Quests:             m.Stats.QuestsCompleted,
			Raids:              m.Stats.RaidsAttended,
			Points:             c.points(m),
			Pets:               len(m.Pets),
			Titles:             len(m.Titles),
			Factions:           len(m.FactionsExalted),
			AchievementsEarned: len(c.positions(m)),
		})
	}
	return acc
}

// AveragePerMember is the mean number of resolved achievements per member,
// rounded to one decimal place.
func AveragePerMember(members []model.Member, achievements []model.Achievement) float64 {
	if len(members) == 0 {
		return 0
	}
	agg := GuildAggregate(members, achievements)
	avg := float64(agg.AchievementsEarned) / float64(len(members))
	return math.Round(avg*10) / 10
}

// CategoriesOf lists the distinct categories in first-seen order. The
// CategoryAll filter value is not included.
func CategoriesOf(achievements []model.Achievement) []string {
	seen := make(map[string]struct{}, len(achievements))
	out := make([]string, 0)
	for _, a := range achievements {
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		out = append(out, a.Category)
	}
	return out
}

// FilterByCategory keeps the achievements in category. CategoryAll or an
// empty category keeps everything.
func FilterByCategory(achievements []model.Achievement, category string) []model.Achievement {
	if category == "" || category == CategoryAll {
		return slices.Clone(achievements)
	}
	out := make([]model.Achievement, 0)
	for _, a := range achievements {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// FindMember looks a member up by exact character name.
func FindMember(members []model.Member, characterName string) (model.Member, bool) {
	for _, m := range members {
		if m.CharacterName == characterName {
			return m.Clone(), true
		}
	}
	return model.Member{}, false
}
