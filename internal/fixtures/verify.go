package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/guildstats/internal/adapters/repository"
	"github.com/okian/guildstats/internal/domain/stats"
	"github.com/okian/guildstats/internal/domain/types"
	"github.com/okian/guildstats/pkg/logger"
)

const defaultVerifyTimeout = 30 * time.Second

// Report summarizes a successful verification.
type Report struct {
	RemoteSnapshotID string
	LocalSnapshotID  string
	Entries          int
	Top              string
	TopPoints        int
}

// Verifier compares a server's leaderboard with one computed locally.
type Verifier struct {
	baseURL string
	client  *http.Client
	sortKey stats.SortKey
	dir     stats.Direction
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithClient sets the HTTP client used to reach the server.
func WithClient(c *http.Client) VerifierOption {
	return func(v *Verifier) {
		if c != nil {
			v.client = c
		}
	}
}

// WithOrdering sets the sort key and direction requested from the server.
func WithOrdering(key stats.SortKey, dir stats.Direction) VerifierOption {
	return func(v *Verifier) {
		v.sortKey = key
		v.dir = dir
	}
}

// NewVerifier creates a verifier for the server at baseURL.
func NewVerifier(baseURL string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultVerifyTimeout},
		sortKey: stats.SortTotal,
		dir:     stats.Desc,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify loads src, ranks it locally and checks every leaderboard row the
// server returns: same length, same order, same ranks and point totals.
func (v *Verifier) Verify(ctx context.Context, src repository.Source) (Report, error) {
	log := logger.Get()

	snap, err := repository.LoadSnapshot(ctx, src)
	if err != nil {
		return Report{}, fmt.Errorf("load local snapshot: %w", err)
	}
	ranked, err := stats.RankMembers(snap.Members, snap.Achievements, v.sortKey, v.dir)
	if err != nil {
		return Report{}, fmt.Errorf("rank locally: %w", err)
	}

	remote, err := v.fetchLeaderboard(ctx)
	if err != nil {
		return Report{}, err
	}

	if len(remote.Entries) != len(ranked) {
		return Report{}, fmt.Errorf("%w: server has %d entries, expected %d",
			ErrMismatch, len(remote.Entries), len(ranked))
	}
	for i, m := range ranked {
		got := remote.Entries[i]
		want := stats.MemberTotalPoints(m, snap.Achievements)
		switch {
		case got.Rank != i+1:
			return Report{}, fmt.Errorf("%w: row %d has rank %d", ErrMismatch, i, got.Rank)
		case got.CharacterName != m.CharacterName:
			return Report{}, fmt.Errorf("%w: rank %d is %q, expected %q",
				ErrMismatch, i+1, got.CharacterName, m.CharacterName)
		case got.TotalPoints != want:
			return Report{}, fmt.Errorf("%w: %q has %d points, expected %d",
				ErrMismatch, m.CharacterName, got.TotalPoints, want)
		}
	}

	rep := Report{
		RemoteSnapshotID: remote.SnapshotID,
		LocalSnapshotID:  snap.ID,
		Entries:          len(ranked),
	}
	if len(ranked) > 0 {
		rep.Top = ranked[0].CharacterName
		rep.TopPoints = stats.MemberTotalPoints(ranked[0], snap.Achievements)
	}
	log.Info(ctx, "leaderboard verified",
		logger.String("baseURL", v.baseURL),
		logger.Int("entries", rep.Entries),
		logger.String("top", rep.Top))
	return rep, nil
}

func (v *Verifier) fetchLeaderboard(ctx context.Context) (types.Leaderboard, error) {
	q := url.Values{}
	q.Set("sort", string(v.sortKey))
	q.Set("dir", string(v.dir))
	endpoint := v.baseURL + "/api/v1/leaderboard?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.Leaderboard{}, fmt.Errorf("%w: %w", ErrServer, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return types.Leaderboard{}, fmt.Errorf("%w: %w", ErrServer, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close response body", logger.Error(err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Leaderboard{}, fmt.Errorf("%w: read body: %w", ErrServer, err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Leaderboard{}, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var lb types.Leaderboard
	if err := json.Unmarshal(body, &lb); err != nil {
		return types.Leaderboard{}, fmt.Errorf("%w: decode leaderboard: %w", ErrServer, err)
	}
	return lb, nil
}
