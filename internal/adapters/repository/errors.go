package repository

import "errors"

// Sentinel kinds for dataset loading errors.
var (
	ErrMalformedDataset    = errors.New("malformed dataset")
	ErrDatasetNotFound     = errors.New("dataset not found")
	ErrUpstream            = errors.New("upstream dataset request failed")
	ErrSourceNotConfigured = errors.New("dataset source not configured")
)
