package models

import "time"

// Query attempt outcomes recorded in the history database.
const (
	QueryStatusOK          = "ok"
	QueryStatusBlocked     = "blocked"
	QueryStatusRateLimited = "rate_limited"
	QueryStatusError       = "error"
)

// QueryRecord is one logged query attempt (DB model).
type QueryRecord struct {
	Timestamp   time.Time
	Status      string
	ID          int64
	PromptChars int
	LatencyMs   int64
	Count       int
	Limit       int
}

// Succeeded reports whether the attempt produced an assistant response.
func (r QueryRecord) Succeeded() bool {
	return r.Status == QueryStatusOK
}

// HourlyCount is an aggregated per-hour query count for charting.
type HourlyCount struct {
	Hour    time.Time
	Total   int
	Blocked int
}
