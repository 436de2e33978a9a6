package domain

import "errors"

var (
	ErrSessionAlreadyActive = errors.New("a session is already active")
	ErrNoActiveSession      = errors.New("no active session")
	ErrInvalidTask          = errors.New("invalid task")
	ErrSlotNotFound         = errors.New("free slot not found")
	ErrIntervalNotFound     = errors.New("busy interval not found")
	ErrInvalidInterval      = errors.New("invalid busy interval")
	ErrSnapshotNotFound     = errors.New("snapshot not found")
	ErrStaleRequest         = errors.New("request superseded by a newer one")
	ErrUnsupportedVersion   = errors.New("unsupported snapshot version")
)
