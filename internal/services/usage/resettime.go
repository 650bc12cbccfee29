package usage

import (
	"strings"
	"time"
)

// Server-side reset markers that are informational only and never parse as dates.
const (
	resetSentinelNone    = "N/A"
	resetSentinelExpired = "Window expired - resets on next query"
)

// wallClockLayout matches the server's "HH:MM:SS UTC" reset strings.
const wallClockLayout = "15:04:05 MST"

// isResetSentinel reports whether the value is one of the known server markers
// meaning "no active window" or "window expired, resets on next query".
func isResetSentinel(value string) bool {
	switch strings.TrimSpace(value) {
	case resetSentinelNone, resetSentinelExpired:
		return true
	}
	return false
}

// parseResetTime interprets a server reset marker as an absolute instant.
// RFC3339 values are taken as-is. Wall-clock values ("14:23:05 UTC") are
// anchored to today in UTC and rolled to the next day when already past; a
// rolled instant farther out than the window length cannot belong to the
// current window and is treated as unparseable. Sentinels and anything else
// malformed report ok=false so the caller falls back to local arithmetic.
func parseResetTime(value string, now time.Time, window time.Duration) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" || isResetSentinel(value) {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}

	t, err := time.Parse(wallClockLayout, value)
	if err != nil {
		return time.Time{}, false
	}

	nowUTC := now.UTC()
	anchored := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, time.UTC)

	if anchored.Before(nowUTC) {
		anchored = anchored.Add(24 * time.Hour)
		if anchored.Sub(nowUTC) > window {
			return time.Time{}, false
		}
	}

	return anchored, true
}
