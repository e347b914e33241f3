package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/guildstats/internal/domain/model"
)

// FileSource reads <dir>/members.json and <dir>/achievements.json.
type FileSource struct {
	dir  string
	opts options
}

// NewFileSource creates a source over dir.
func NewFileSource(dir string, opts ...Option) *FileSource {
	return &FileSource{dir: dir, opts: newOptions(opts)}
}

// Name implements Source.
func (s *FileSource) Name() string { return KindFile }

// Dir returns the directory the source reads from.
func (s *FileSource) Dir() string { return s.dir }

// Members implements Source.
func (s *FileSource) Members(ctx context.Context) ([]model.Member, error) {
	data, err := s.read(ctx, DatasetMembers)
	if err != nil {
		return nil, err
	}
	return decodeDataset[model.Member](ctx, s.opts.logger, DatasetMembers, data)
}

// Achievements implements Source.
func (s *FileSource) Achievements(ctx context.Context) ([]model.Achievement, error) {
	data, err := s.read(ctx, DatasetAchievements)
	if err != nil {
		return nil, err
	}
	return decodeDataset[model.Achievement](ctx, s.opts.logger, DatasetAchievements, data)
}

func (s *FileSource) read(ctx context.Context, dataset string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, dataset+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
