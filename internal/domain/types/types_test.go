package types_test

import (
	"math"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/guildstats/internal/domain/types"
)

func TestSaturatingAdd(t *testing.T) {
	convey.Convey("Given ints near the edges of the range", t, func() {
		convey.So(types.SaturatingAdd(2, 3), convey.ShouldEqual, 5)
		convey.So(types.SaturatingAdd(-2, 3), convey.ShouldEqual, 1)
		convey.So(types.SaturatingAdd(math.MaxInt, 1), convey.ShouldEqual, math.MaxInt)
		convey.So(types.SaturatingAdd(math.MaxInt-1, math.MaxInt), convey.ShouldEqual, math.MaxInt)
		convey.So(types.SaturatingAdd(math.MinInt, -1), convey.ShouldEqual, math.MinInt)
		convey.So(types.SaturatingAdd(math.MaxInt, math.MinInt), convey.ShouldEqual, -1)
	})
}

func TestGuildAggregateAdd(t *testing.T) {
	convey.Convey("Given many members with huge counters", t, func() {
		member := types.GuildAggregate{Members: 1, HK: math.MaxInt / 1000, Points: math.MaxInt / 1000}
		var acc types.GuildAggregate
		for range 2048 {
			acc = acc.Add(member)
		}

		convey.Convey("Then the sums pin at MaxInt instead of wrapping negative", func() {
			convey.So(acc.Members, convey.ShouldEqual, 2048)
			convey.So(acc.HK, convey.ShouldEqual, math.MaxInt)
			convey.So(acc.Points, convey.ShouldEqual, math.MaxInt)
			convey.So(acc.Quests, convey.ShouldEqual, 0)
		})
	})
}
