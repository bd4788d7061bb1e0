// Package leaderboard contains the sync engine that reconciles upstream
// snapshots into the event store and the read service that reconstructs
// leaderboard views from it.
package leaderboard

import "time"

// Entry is one row of the current leaderboard.
type Entry struct {
	UserName    string `json:"userName"`
	Rank        int    `json:"rank"`
	Score       int    `json:"score"`
	LastUpdated string `json:"lastUpdated"`
}

// HistoryPoint is one past observation of a user's rank and score.
type HistoryPoint struct {
	Rank        int    `json:"rank"`
	Score       int    `json:"score"`
	LastUpdated string `json:"lastUpdated"`
}

// EntryWithHistory is a leaderboard row joined with the user's full
// observation history, most recent first.
type EntryWithHistory struct {
	Entry
	History []HistoryPoint `json:"history"`
}

// UserHistory is the full observation history of a single user.
type UserHistory struct {
	UserName string         `json:"userName"`
	History  []HistoryPoint `json:"history"`
}

// FormatTimestamp renders an epoch-milliseconds timestamp as an ISO-8601
// UTC string with millisecond precision. This rendering is part of the
// read contract, not an internal detail.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
