// Package repository loads the members and achievements datasets from a
// directory, an HTTP endpoint or Postgres, and joins them into snapshots.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/guildstats/internal/domain/model"
	"github.com/okian/guildstats/pkg/logger"
	"github.com/okian/guildstats/pkg/metrics"
)

// Dataset names, also used as file stems and Postgres keys.
const (
	DatasetMembers      = "members"
	DatasetAchievements = "achievements"
)

// Source kinds accepted by Open.
const (
	KindFile     = "file"
	KindHTTP     = "http"
	KindPostgres = "postgres"
)

// Source provides both datasets.
type Source interface {
	Members(ctx context.Context) ([]model.Member, error)
	Achievements(ctx context.Context) ([]model.Achievement, error)
	// Name identifies the source kind in logs and metrics.
	Name() string
}

// Open builds the Source of the given kind reading from location: a
// directory, a base URL or a Postgres connection string.
func Open(ctx context.Context, kind, location string, opts ...Option) (Source, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: %s source needs a location", ErrSourceNotConfigured, kind)
	}
	switch kind {
	case KindFile:
		return NewFileSource(location, opts...), nil
	case KindHTTP:
		return NewHTTPSource(location, opts...), nil
	case KindPostgres:
		return NewPostgresSource(ctx, location, opts...)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrSourceNotConfigured, kind)
}

// decodeDataset parses a JSON array of records. A payload that is not an
// array, or an array holding anything other than objects and nulls, fails
// with ErrMalformedDataset. Nulls and objects whose fields cannot be decoded
// are skipped and counted.
func decodeDataset[T any](ctx context.Context, log logger.Logger, dataset string, data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: %s: payload is not a JSON array", ErrMalformedDataset, dataset)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedDataset, dataset, err)
	}

	out := make([]T, 0, len(raw))
	skipped := 0
	for i, rec := range raw {
		rec = bytes.TrimSpace(rec)
		if bytes.Equal(rec, []byte("null")) {
			skipped++
			continue
		}
		if len(rec) == 0 || rec[0] != '{' {
			return nil, fmt.Errorf("%w: %s: record %d is not an object", ErrMalformedDataset, dataset, i)
		}
		var v T
		if err := json.Unmarshal(rec, &v); err != nil {
			skipped++
			if log != nil {
				log.Warn(ctx, "skipping undecodable record",
					logger.String("dataset", dataset),
					logger.Int("index", i),
					logger.Error(err),
				)
			}
			continue
		}
		out = append(out, v)
	}
	metrics.RecordSkippedRecords(dataset, skipped)
	return out, nil
}
