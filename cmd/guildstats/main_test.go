package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/guildstats/internal/config"
	"github.com/okian/guildstats/internal/fixtures"
	"github.com/okian/guildstats/pkg/logger"
)

func TestMainComponents(t *testing.T) {
	convey.Convey("Given a generated dataset and a file config", t, func() {
		ctx := context.Background()
		convey.So(logger.Init(), convey.ShouldBeNil)

		dir := t.TempDir()
		ds, err := fixtures.Generate(ctx, fixtures.DefaultConfig())
		convey.So(err, convey.ShouldBeNil)
		convey.So(fixtures.WriteDir(ctx, dir, ds), convey.ShouldBeNil)

		cfg := config.New(ctx)
		cfg.DataDir = dir
		cfg.RateLimitEnabled = false

		convey.Convey("When the service is built from config", func() {
			svc, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			router := newRouter(ctx, cfg, svc, logger.Get())

			convey.Convey("Then the API and docs are routed", func() {
				for _, path := range []string{"/api/v1/home", "/api/v1/leaderboard", "/api/v1/achievements", "/stats", "/healthz", "/api-docs", "/openapi.yaml"} {
					rec := httptest.NewRecorder()
					router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then the home view reflects the configured top N", func() {
				home, err := svc.Home(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(home.TopMembers, convey.ShouldHaveLength, cfg.TopN)
				convey.So(home.Aggregate.Members, convey.ShouldEqual, len(ds.Members))
			})
		})

		convey.Convey("When the source cannot be opened", func() {
			cfg.Source = "s3"
			_, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
