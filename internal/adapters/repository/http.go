package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/guildstats/internal/domain/model"
)

// HTTPSource fetches <baseURL>/members.json and <baseURL>/achievements.json.
type HTTPSource struct {
	baseURL string
	opts    options
}

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL string, opts ...Option) *HTTPSource {
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), opts: newOptions(opts)}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return KindHTTP }

// Members implements Source.
func (s *HTTPSource) Members(ctx context.Context) ([]model.Member, error) {
	data, err := s.fetch(ctx, DatasetMembers)
	if err != nil {
		return nil, err
	}
	return decodeDataset[model.Member](ctx, s.opts.logger, DatasetMembers, data)
}

// Achievements implements Source.
func (s *HTTPSource) Achievements(ctx context.Context) ([]model.Achievement, error) {
	data, err := s.fetch(ctx, DatasetAchievements)
	if err != nil {
		return nil, err
	}
	return decodeDataset[model.Achievement](ctx, s.opts.logger, DatasetAchievements, data)
}

func (s *HTTPSource) fetch(ctx context.Context, dataset string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	url := s.baseURL + "/" + dataset + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotConfigured, url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrUpstream, url, resp.StatusCode)
	}
	// One byte past the cap tells a full payload from an oversized one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.maxPayload+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, url, err)
	}
	if int64(len(data)) > s.opts.maxPayload {
		return nil, fmt.Errorf("%w: %s: payload too large (over %d bytes)", ErrUpstream, url, s.opts.maxPayload)
	}
	return data, nil
}
