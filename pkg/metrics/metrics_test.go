package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestManager(opts ...Option) (*Manager, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	return NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...), registry
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		Convey("When creating a manager with defaults", func() {
			m, _ := newTestManager()

			Convey("Then defaults should be applied", func() {
				So(m.namespace, ShouldEqual, "guildstats")
				So(m.subsystem, ShouldEqual, "engine")
				So(m.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating a manager with options", func() {
			m, registry := newTestManager(
				WithNamespace("guild"),
				WithSubsystem("test"),
				WithHistogramBuckets([]float64{1, 10}),
				WithRefreshInterval(time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
			)
			m.RecordRateLimited()

			Convey("Then metric names and labels should follow them", func() {
				expected := `
# HELP guild_test_http_rate_limited_total Requests rejected by the rate limiter
# TYPE guild_test_http_rate_limited_total counter
guild_test_http_rate_limited_total{env="test"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "guild_test_http_rate_limited_total")
				So(err, ShouldBeNil)
				So(m.refreshInterval, ShouldEqual, time.Second)
			})
		})

		Convey("When options carry zero values", func() {
			m, _ := newTestManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(-time.Second),
				WithConstLabels(nil),
				WithPrometheusRegistry(nil),
			)

			Convey("Then defaults should be kept", func() {
				So(m.namespace, ShouldEqual, "guildstats")
				So(m.subsystem, ShouldEqual, "engine")
				So(len(m.histogramBuckets), ShouldBeGreaterThan, 0)
				So(m.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestDatasetMetrics(t *testing.T) {
	Convey("Given a manager", t, func() {
		m, _ := newTestManager()

		Convey("When loads succeed and fail", func() {
			m.RecordDatasetLoad("file", 12, nil)
			m.RecordDatasetLoad("file", 8, nil)
			m.RecordDatasetLoad("http", 0, errors.New("boom"))

			Convey("Then they should be counted by source and result", func() {
				So(testutil.ToFloat64(m.datasetLoads.WithLabelValues("file", ResultSuccess)), ShouldEqual, 2)
				So(testutil.ToFloat64(m.datasetLoads.WithLabelValues("http", ResultFailure)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.datasetLoads.WithLabelValues("http", ResultSuccess)), ShouldEqual, 0)
			})
		})

		Convey("When records are skipped", func() {
			m.RecordSkippedRecords("members", 2)
			m.RecordSkippedRecords("members", 0)

			Convey("Then only positive counts should be added", func() {
				So(testutil.ToFloat64(m.datasetDecodeDrops.WithLabelValues("members")), ShouldEqual, 2)
			})
		})

		Convey("When a snapshot is published", func() {
			loadedAt := time.Unix(1700000000, 0)
			m.UpdateSnapshot(12, 40, loadedAt)
			m.RecordSnapshotCache(true)
			m.RecordSnapshotCache(true)
			m.RecordSnapshotCache(false)

			Convey("Then gauges and cache counters should reflect it", func() {
				So(testutil.ToFloat64(m.snapshotMembers), ShouldEqual, 12)
				So(testutil.ToFloat64(m.snapshotAchievements), ShouldEqual, 40)
				So(testutil.ToFloat64(m.snapshotLastUnix), ShouldEqual, 1700000000)
				So(testutil.ToFloat64(m.snapshotCacheHits), ShouldEqual, 2)
				So(testutil.ToFloat64(m.snapshotCacheMisses), ShouldEqual, 1)
			})
		})
	})
}

func TestHTTPAndErrorMetrics(t *testing.T) {
	Convey("Given a manager", t, func() {
		m, registry := newTestManager()

		Convey("When recording requests, views and errors", func() {
			m.RecordHTTPRequest("/api/v1/home", "GET", "200", 3.5)
			m.RecordHTTPRequest("/api/v1/home", "GET", "200", 1.5)
			m.RecordViewLatency("leaderboard", 0.4)
			m.RecordErrorByComponent("repository", "upstream")

			Convey("Then they should be collected", func() {
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/home", "GET", "200")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.errorRateByComponent.WithLabelValues("repository", "upstream")), ShouldEqual, 1)
				n, err := testutil.GatherAndCount(registry, "guildstats_engine_view_latency_milliseconds")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestSystemCollector(t *testing.T) {
	Convey("Given a manager with a short refresh interval", t, func() {
		m, _ := newTestManager(WithRefreshInterval(5 * time.Millisecond))

		Convey("When the collector runs until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			m.RunSystemCollector(ctx)

			Convey("Then goroutine and memory gauges should be set", func() {
				So(testutil.ToFloat64(m.systemGoroutineCount), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(m.systemMemoryUsage), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the default manager", t, func() {
		Convey("When recording concurrently through the package helpers", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					RecordDatasetLoad("file", 1, nil)
					RecordSkippedRecords("achievements", 1)
					UpdateSnapshot(1, 1, time.Now())
					RecordSnapshotCache(true)
					RecordViewLatency("home", 1)
					RecordHTTPRequest("/stats", "GET", "200", 1)
					RecordRateLimited()
					RecordErrorByComponent("api", "bad_request")
				}()
			}
			wg.Wait()

			Convey("Then the shared registry should expose them", func() {
				n, err := testutil.GatherAndCount(GetRegistry(), "guildstats_engine_http_rate_limited_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}
