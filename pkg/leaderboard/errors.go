package leaderboard

import "errors"

var (
	// ErrUserNotFound means a history query named a user with no stored
	// observations. A caller-supplied bad identifier, not a system fault.
	ErrUserNotFound = errors.New("user not found")

	// ErrSyncInFlight means a sync trigger arrived while a cycle was
	// already running. Cycles are never queued.
	ErrSyncInFlight = errors.New("sync already in flight")
)
