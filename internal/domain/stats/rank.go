package stats

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/okian/guildstats/internal/domain/model"
)

// SortKey selects the value members are ranked by: SortTotal, SortName or
// the name of any numeric field under stats.
type SortKey string

// Well-known sort keys.
const (
	SortTotal           SortKey = "total"
	SortName            SortKey = "name"
	SortHK              SortKey = model.StatHK
	SortQuestsCompleted SortKey = model.StatQuestsCompleted
	SortRaidsAttended   SortKey = model.StatRaidsAttended
)

// Direction is the ranking order.
type Direction string

// Ranking directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey validates a sort key received from a caller.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSortKey)
	}
	return SortKey(s), nil
}

// ParseDirection validates a direction received from a caller.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

type rankRow struct {
	member model.Member
	num    int
	text   string
}

// RankMembers orders members by key in the given direction. The sort is
// stable: members comparing equal keep their input order in either
// direction. Names compare case-insensitively; a stats field a member lacks
// counts as 0.
func RankMembers(members []model.Member, achievements []model.Achievement, key SortKey, dir Direction) ([]model.Member, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSortKey)
	}
	if dir != Asc && dir != Desc {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

	rows := make([]rankRow, len(members))
	switch key {
	case SortTotal:
		c := newCatalog(achievements)
		for i, m := range members {
			rows[i] = rankRow{member: m, num: c.points(m)}
		}
	case SortName:
		fold := cases.Fold()
		for i, m := range members {
			rows[i] = rankRow{member: m, text: fold.String(m.CharacterName)}
		}
	default:
		for i, m := range members {
			v, _ := m.Stats.Value(string(key))
			rows[i] = rankRow{member: m, num: v}
		}
	}

	slices.SortStableFunc(rows, func(a, b rankRow) int {
		c := cmp.Compare(a.num, b.num)
		if key == SortName {
			c = strings.Compare(a.text, b.text)
		}
		if dir == Desc {
			return -c
		}
		return c
	})

	out := make([]model.Member, len(rows))
	for i, r := range rows {
		out[i] = r.member.Clone()
	}
	return out, nil
}

// TopNByPoints returns the n highest scoring members. Fewer members than n
// yields all of them; n == 0 yields none.
func TopNByPoints(members []model.Member, achievements []model.Achievement, n int) ([]model.Member, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeLimit, n)
	}
	ranked, err := RankMembers(members, achievements, SortTotal, Desc)
	if err != nil {
		return nil, err
	}
	if n < len(ranked) {
		ranked = ranked[:n:n]
	}
	return ranked, nil
}
