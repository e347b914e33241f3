package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/guildstats/internal/adapters/repository"
	"github.com/okian/guildstats/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

// Store receives encoded datasets; repository.PostgresSource implements it.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Put(ctx context.Context, dataset string, payload []byte) error
}

// Encode returns the members and achievements JSON documents.
func (d Dataset) Encode() (members, achievements []byte, err error) {
	if members, err = json.MarshalIndent(d.Members, "", "  "); err != nil {
		return nil, nil, fmt.Errorf("encode members: %w", err)
	}
	if achievements, err = json.MarshalIndent(d.Achievements, "", "  "); err != nil {
		return nil, nil, fmt.Errorf("encode achievements: %w", err)
	}
	return members, achievements, nil
}

// WriteDir writes members.json and achievements.json into dir, creating it
// when missing. The result is readable by repository.FileSource.
func WriteDir(ctx context.Context, dir string, d Dataset) error {
	members, achievements, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for dataset, payload := range map[string][]byte{
		repository.DatasetMembers:      members,
		repository.DatasetAchievements: achievements,
	} {
		path := filepath.Join(dir, dataset+".json")
		if err := os.WriteFile(path, payload, filePermission); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	logger.Get().Info(ctx, "dataset written",
		logger.String("dir", dir),
		logger.String("id", d.ID))
	return nil
}

// Publish stores both datasets, creating the table first.
func Publish(ctx context.Context, store Store, d Dataset) error {
	members, achievements, err := d.Encode()
	if err != nil {
		return err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := store.Put(ctx, repository.DatasetMembers, members); err != nil {
		return fmt.Errorf("put members: %w", err)
	}
	if err := store.Put(ctx, repository.DatasetAchievements, achievements); err != nil {
		return fmt.Errorf("put achievements: %w", err)
	}
	logger.Get().Info(ctx, "dataset published", logger.String("id", d.ID))
	return nil
}
