package repository

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNotFound     = errors.New("athlete not ranked")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidScore = errors.New("invalid score")
)
