// Package service loads guild snapshots and computes the views served by
// the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/guildstats/internal/adapters/repository"
	"github.com/okian/guildstats/pkg/logger"
	"github.com/okian/guildstats/pkg/metrics"
)

// Defaults applied by New.
const (
	defaultSnapshotTTL = 30 * time.Second
	defaultTopN        = 5
	defaultPreviewSize = 3
)

// Service caches one snapshot at a time and derives views from it.
type Service struct {
	mu sync.RWMutex

	source repository.Source
	group  singleflight.Group

	// Configuration
	ttl         time.Duration
	topN        int
	previewSize int
	now         func() time.Time

	// State
	snap    *repository.Snapshot
	started bool
	loads   int64
	hits    int64
	misses  int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where datasets are loaded from.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSnapshotTTL sets how long a snapshot is reused. Zero loads the
// datasets on every request.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithTopN sets how many members the home view lists.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.topN = n
		}
	}
}

// WithPreviewSize sets how many achievements the home view previews.
func WithPreviewSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.previewSize = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		ttl:         defaultSnapshotTTL,
		topN:        defaultTopN,
		previewSize: defaultPreviewSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start checks the source and warms the snapshot cache. A failed warm-up is
// logged and retried on the first request.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.source == nil {
		s.mu.Unlock()
		return ErrSourceNotConfigured
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting guild stats service",
		logger.String("source", s.source.Name()),
		logger.Duration("snapshotTTL", s.ttl),
		logger.Int("topN", s.topN),
	)
	if _, err := s.Snapshot(ctx); err != nil {
		s.logger.Warn(ctx, "initial snapshot load failed", logger.Error(err))
	}
	return nil
}

// Stop releases the source.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if c, ok := s.source.(io.Closer); ok {
		_ = c.Close()
	}
	s.snap = nil
	s.started = false
	s.logger.Info(context.Background(), "guild stats service stopped")
}

// Snapshot returns the cached snapshot while it is younger than the TTL and
// loads a new one otherwise. Concurrent reloads are coalesced.
func (s *Service) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	if s.source == nil {
		return nil, ErrSourceNotConfigured
	}

	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil && s.ttl > 0 && s.now().Sub(snap.LoadedAt) < s.ttl {
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		metrics.RecordSnapshotCache(true)
		return snap, nil
	}

	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
	metrics.RecordSnapshotCache(false)
	// The shared load outlives any single caller; each caller only stops
	// waiting when its own context ends.
	ch := s.group.DoChan("snapshot", func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*repository.Snapshot), nil
	}
}

func (s *Service) load(ctx context.Context) (*repository.Snapshot, error) {
	start := time.Now()
	snap, err := repository.LoadSnapshot(ctx, s.source)

	s.mu.Lock()
	if err == nil {
		s.loads++
		s.snap = snap
	}
	s.mu.Unlock()

	log := s.log()
	if err != nil {
		metrics.RecordErrorByComponent("repository", "load")
		log.Error(ctx, "snapshot load failed",
			logger.String("source", s.source.Name()),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	log.Debug(ctx, "snapshot loaded",
		logger.String("snapshotId", snap.ID),
		logger.Int("members", len(snap.Members)),
		logger.Int("achievements", len(snap.Achievements)),
		logger.Duration("took", time.Since(start)),
	)
	return snap, nil
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"snapshotTtlMs": s.ttl.Milliseconds(),
		"topN":          s.topN,
		"loads":         s.loads,
		"cacheHits":     s.hits,
		"cacheMisses":   s.misses,
	}
	if s.source != nil {
		stats["source"] = s.source.Name()
	}
	if s.snap != nil {
		stats["snapshotId"] = s.snap.ID
		stats["loadedAt"] = s.snap.LoadedAt.Format(time.RFC3339Nano)
		stats["snapshotAgeMs"] = s.now().Sub(s.snap.LoadedAt).Milliseconds()
		stats["members"] = len(s.snap.Members)
		stats["achievements"] = len(s.snap.Achievements)
	}
	return stats
}
