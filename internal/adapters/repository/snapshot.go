package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/guildstats/internal/domain/model"
	"github.com/okian/guildstats/pkg/metrics"
)

// Snapshot is an immutable pair of datasets loaded together. Callers must
// not modify its slices.
type Snapshot struct {
	ID           string
	Source       string
	LoadedAt     time.Time
	Members      []model.Member
	Achievements []model.Achievement
}

// LoadSnapshot fetches both datasets concurrently. If either fetch fails
// the other is cancelled and no snapshot is returned.
func LoadSnapshot(ctx context.Context, src Source) (*Snapshot, error) {
	if src == nil {
		return nil, ErrSourceNotConfigured
	}
	start := time.Now()

	var (
		members      []model.Member
		achievements []model.Achievement
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		m, err := src.Members(egCtx)
		if err != nil {
			return fmt.Errorf("load %s: %w", DatasetMembers, err)
		}
		members = m
		return nil
	})
	eg.Go(func() error {
		a, err := src.Achievements(egCtx)
		if err != nil {
			return fmt.Errorf("load %s: %w", DatasetAchievements, err)
		}
		achievements = a
		return nil
	})
	if err := eg.Wait(); err != nil {
		metrics.RecordDatasetLoad(src.Name(), 0, err)
		return nil, err
	}

	snap := &Snapshot{
		ID:           uuid.NewString(),
		Source:       src.Name(),
		LoadedAt:     time.Now().UTC(),
		Members:      members,
		Achievements: achievements,
	}
	metrics.RecordDatasetLoad(src.Name(), float64(time.Since(start).Microseconds())/1000, nil)
	metrics.UpdateSnapshot(len(members), len(achievements), snap.LoadedAt)
	return snap, nil
}
