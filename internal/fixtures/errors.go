package fixtures

import "errors"

var (
	// ErrInvalidConfig is returned for generator parameters out of range.
	ErrInvalidConfig = errors.New("invalid fixture config")
	// ErrMismatch is returned when the server disagrees with the local computation.
	ErrMismatch = errors.New("leaderboard mismatch")
	// ErrServer is returned when the server cannot be queried.
	ErrServer = errors.New("server request failed")
)
