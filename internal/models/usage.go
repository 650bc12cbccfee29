// Package models defines data structures and domain types.
package models

import "time"

// Connectivity describes whether the last reconciliation round reached the server.
type Connectivity int

const (
	// Connected means the last server probe succeeded and the snapshot is authoritative.
	Connected Connectivity = iota
	// Disconnected means the engine is running on locally persisted state only.
	Disconnected
)

// String returns the string representation of a Connectivity value.
func (c Connectivity) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

// UsageSnapshot is the single persisted record of the client's last-known usage.
// Exactly one snapshot exists at any time; it is overwritten in place.
type UsageSnapshot struct {
	// Timestamp marks the start of the current local window.
	Timestamp time.Time `json:"timestamp"`
	// ServerResetTime is the server-reported reset marker, verbatim. It may be a
	// wall-clock string, a sentinel, or empty when no fresh server data exists.
	ServerResetTime string `json:"serverResetTime,omitempty"`
	// Count is the number of queries consumed in the current window.
	Count int `json:"count"`
	// Limit is the maximum number of queries allowed per window.
	Limit int `json:"limit"`
	// ServerSynced reports whether Count/Limit came from the server on the last
	// successful probe.
	ServerSynced bool `json:"serverSync"`
}

// DefaultSnapshot returns a fresh snapshot for a new window starting at now.
func DefaultSnapshot(limit int, now time.Time) UsageSnapshot {
	return UsageSnapshot{
		Count:        0,
		Limit:        limit,
		Timestamp:    now,
		ServerSynced: false,
	}
}

// Remaining returns the number of queries left in the window, floored at zero.
func (s UsageSnapshot) Remaining() int {
	r := s.Limit - s.Count
	if r < 0 {
		return 0
	}
	return r
}

// HasReachedLimit reports whether the snapshot has consumed its full quota.
func (s UsageSnapshot) HasReachedLimit() bool {
	return s.Count >= s.Limit
}

// ServerStatus is the authoritative rate-limit status reported by the server.
type ServerStatus struct {
	ResetTime        string `json:"reset_time"`
	QueriesUsed      int    `json:"queries_used"`
	QueriesRemaining int    `json:"queries_remaining"`
	TimeWindowHours  int    `json:"time_window_hours,omitempty"`
}

// Limit reconstructs the quota window size from the two server counters; the
// server does not expose a limit field directly.
func (s ServerStatus) Limit() int {
	return s.QueriesUsed + s.QueriesRemaining
}

// UsageSummary is the usage digest attached to every successful query result.
type UsageSummary struct {
	ResetIn   time.Duration
	Count     int
	Limit     int
	Remaining int
}
