package repository_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/guildstats/internal/adapters/repository"
	"github.com/okian/guildstats/internal/domain/model"
)

const (
	membersJSON = `[
		{"characterName": "Thrall", "class": "Shaman", "stats": {"hk": 3, "questsCompleted": 4}, "achievements": ["A", "B"]},
		{"characterName": "Jaina", "class": "Mage", "stats": {"hk": 1, "questsCompleted": 2, "raidsAttended": 1}, "achievements": ["A"]}
	]`
	achievementsJSON = `[
		{"name": "A", "description": "first", "category": "PvE", "points": 10},
		{"name": "B", "description": "second", "category": "PvP", "points": 20}
	]`
)

func writeDatasets(dir, members, achievements string) {
	if members != "" {
		So(os.WriteFile(filepath.Join(dir, "members.json"), []byte(members), 0o600), ShouldBeNil)
	}
	if achievements != "" {
		So(os.WriteFile(filepath.Join(dir, "achievements.json"), []byte(achievements), 0o600), ShouldBeNil)
	}
}

func TestFileSource(t *testing.T) {
	Convey("Given a directory with both datasets", t, func() {
		dir := t.TempDir()
		writeDatasets(dir, membersJSON, achievementsJSON)
		src := repository.NewFileSource(dir)
		ctx := context.Background()

		Convey("When reading members and achievements", func() {
			members, err := src.Members(ctx)
			So(err, ShouldBeNil)
			achievements, err := src.Achievements(ctx)
			So(err, ShouldBeNil)

			Convey("Then both should decode", func() {
				So(len(members), ShouldEqual, 2)
				So(members[0].CharacterName, ShouldEqual, "Thrall")
				So(members[1].Stats.RaidsAttended, ShouldEqual, 1)
				So(len(achievements), ShouldEqual, 2)
				So(achievements[1].Points, ShouldEqual, 20)
				So(src.Name(), ShouldEqual, repository.KindFile)
			})
		})

		Convey("When the payload is not an array", func() {
			writeDatasets(dir, `{"characterName": "Thrall"}`, "")
			_, err := src.Members(ctx)

			Convey("Then it should fail with ErrMalformedDataset", func() {
				So(errors.Is(err, repository.ErrMalformedDataset), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "members")
			})
		})

		Convey("When some records are not objects", func() {
			writeDatasets(dir, `[{"characterName": "Thrall"}, 7, "x"]`, "")
			members, err := src.Members(ctx)

			Convey("Then the dataset should be rejected naming the record", func() {
				So(errors.Is(err, repository.ErrMalformedDataset), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "members")
				So(err.Error(), ShouldContainSubstring, "record 1")
				So(members, ShouldBeNil)
			})
		})

		Convey("When every record is a scalar", func() {
			writeDatasets(dir, `[1, "x", true]`, "")
			_, err := src.Members(ctx)

			Convey("Then it should not load as an empty guild", func() {
				So(errors.Is(err, repository.ErrMalformedDataset), ShouldBeTrue)
			})
		})

		Convey("When records are null or have mistyped fields", func() {
			writeDatasets(dir, `[{"characterName": "Thrall"}, null, {"characterName": 5}, {"characterName": "Jaina"}]`, "")
			members, err := src.Members(ctx)

			Convey("Then those records should be skipped", func() {
				So(err, ShouldBeNil)
				So(len(members), ShouldEqual, 2)
				So(members[1].CharacterName, ShouldEqual, "Jaina")
			})
		})

		Convey("When a dataset file is missing", func() {
			_, err := repository.NewFileSource(t.TempDir()).Achievements(ctx)

			Convey("Then it should fail with ErrDatasetNotFound", func() {
				So(errors.Is(err, repository.ErrDatasetNotFound), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := src.Members(cctx)

			Convey("Then the read should be abandoned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestHTTPSource(t *testing.T) {
	Convey("Given an HTTP server publishing the datasets", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/data/members.json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(membersJSON))
		})
		mux.HandleFunc("/data/achievements.json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(achievementsJSON))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		ctx := context.Background()

		Convey("When fetching with a trailing slash in the base URL", func() {
			src := repository.NewHTTPSource(srv.URL+"/data/", repository.WithTimeout(time.Second))
			members, err := src.Members(ctx)
			So(err, ShouldBeNil)
			achievements, err := src.Achievements(ctx)
			So(err, ShouldBeNil)

			Convey("Then both datasets should decode", func() {
				So(len(members), ShouldEqual, 2)
				So(len(achievements), ShouldEqual, 2)
			})
		})

		Convey("When the server answers with an error status", func() {
			src := repository.NewHTTPSource(srv.URL + "/missing")
			_, err := src.Members(ctx)

			Convey("Then it should fail with ErrUpstream", func() {
				So(errors.Is(err, repository.ErrUpstream), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "404")
			})
		})

		Convey("When a dataset is larger than the payload cap", func() {
			src := repository.NewHTTPSource(srv.URL+"/data", repository.WithMaxPayload(16))
			members, err := src.Members(ctx)

			Convey("Then it should fail instead of decoding a truncated body", func() {
				So(errors.Is(err, repository.ErrUpstream), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "payload too large")
				So(members, ShouldBeNil)
			})
		})

		Convey("When a dataset is exactly at the payload cap", func() {
			src := repository.NewHTTPSource(srv.URL+"/data", repository.WithMaxPayload(int64(len(membersJSON))))
			members, err := src.Members(ctx)

			Convey("Then it should decode", func() {
				So(err, ShouldBeNil)
				So(len(members), ShouldEqual, 2)
			})
		})
	})
}

type fakeRow struct {
	data []byte
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.data
	return nil
}

type fakeDB struct {
	mu   sync.Mutex
	rows map[string][]byte
	sql  []string
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{data: data}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sql = append(f.sql, sql)
	if len(args) == 2 {
		f.rows[args[0].(string)] = args[1].([]byte)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresSource(t *testing.T) {
	Convey("Given a Postgres source over a fake connection", t, func() {
		db := &fakeDB{rows: map[string][]byte{}}
		src := repository.NewPostgresSourceWithQuerier(db)
		ctx := context.Background()

		Convey("When the datasets are stored and read back", func() {
			So(src.EnsureSchema(ctx), ShouldBeNil)
			So(src.Put(ctx, repository.DatasetMembers, []byte(membersJSON)), ShouldBeNil)
			So(src.Put(ctx, repository.DatasetAchievements, []byte(achievementsJSON)), ShouldBeNil)

			snap, err := repository.LoadSnapshot(ctx, src)

			Convey("Then a snapshot should be built from them", func() {
				So(err, ShouldBeNil)
				So(snap.Source, ShouldEqual, repository.KindPostgres)
				So(len(snap.Members), ShouldEqual, 2)
				So(len(snap.Achievements), ShouldEqual, 2)
				So(db.sql[0], ShouldContainSubstring, "CREATE TABLE IF NOT EXISTS guild_datasets")
			})
		})

		Convey("When a dataset row is missing", func() {
			_, err := src.Achievements(ctx)

			Convey("Then it should fail with ErrDatasetNotFound", func() {
				So(errors.Is(err, repository.ErrDatasetNotFound), ShouldBeTrue)
			})
		})
	})
}

type stubSource struct {
	members      []model.Member
	achievements []model.Achievement
	membersErr   error
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) Members(context.Context) ([]model.Member, error) {
	return s.members, s.membersErr
}

func (s stubSource) Achievements(ctx context.Context) ([]model.Achievement, error) {
	if s.membersErr != nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.achievements, nil
}

func TestLoadSnapshot(t *testing.T) {
	Convey("Given a source", t, func() {
		ctx := context.Background()

		Convey("When both datasets load", func() {
			src := stubSource{
				members:      []model.Member{{CharacterName: "Thrall"}},
				achievements: []model.Achievement{{Name: "A", Points: 10}},
			}
			first, err := repository.LoadSnapshot(ctx, src)
			So(err, ShouldBeNil)
			second, err := repository.LoadSnapshot(ctx, src)
			So(err, ShouldBeNil)

			Convey("Then each snapshot should get its own id and timestamp", func() {
				So(first.ID, ShouldNotBeEmpty)
				So(first.ID, ShouldNotEqual, second.ID)
				So(first.LoadedAt.IsZero(), ShouldBeFalse)
				So(first.Source, ShouldEqual, "stub")
				So(len(first.Members), ShouldEqual, 1)
				So(len(first.Achievements), ShouldEqual, 1)
			})
		})

		Convey("When one dataset fails", func() {
			boom := errors.New("boom")
			snap, err := repository.LoadSnapshot(ctx, stubSource{membersErr: boom})

			Convey("Then the whole load should fail and cancel the other fetch", func() {
				So(snap, ShouldBeNil)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "load members")
			})
		})

		Convey("When no source is configured", func() {
			_, err := repository.LoadSnapshot(ctx, nil)

			Convey("Then it should fail with ErrSourceNotConfigured", func() {
				So(errors.Is(err, repository.ErrSourceNotConfigured), ShouldBeTrue)
			})
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given source settings", t, func() {
		ctx := context.Background()

		Convey("When opening a file source", func() {
			src, err := repository.Open(ctx, repository.KindFile, t.TempDir())
			So(err, ShouldBeNil)
			So(src.Name(), ShouldEqual, repository.KindFile)
		})

		Convey("When opening an http source", func() {
			src, err := repository.Open(ctx, repository.KindHTTP, "http://example.test")
			So(err, ShouldBeNil)
			So(src.Name(), ShouldEqual, repository.KindHTTP)
		})

		Convey("When the kind is unknown or the location empty", func() {
			_, err := repository.Open(ctx, "ftp", "somewhere")
			So(errors.Is(err, repository.ErrSourceNotConfigured), ShouldBeTrue)
			_, err = repository.Open(ctx, repository.KindFile, "")
			So(errors.Is(err, repository.ErrSourceNotConfigured), ShouldBeTrue)
		})

		Convey("When the database URL cannot be parsed", func() {
			_, err := repository.Open(ctx, repository.KindPostgres, "postgres://localhost:badport/guild")
			So(errors.Is(err, repository.ErrSourceNotConfigured), ShouldBeTrue)
		})
	})
}
