package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrDatasetUnavailable  = errors.New("datasets unavailable")
	ErrSourceNotConfigured = errors.New("service has no dataset source")
)
