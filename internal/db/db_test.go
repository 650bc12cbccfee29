package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/stylist-chat-tui/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestNew(t *testing.T) {
	database := newTestDB(t)
	if database.Path() == "" {
		t.Error("Path() should return the database path")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	database, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = database.Close() }()
}

func TestInsertQuery(t *testing.T) {
	database := newTestDB(t)

	rec := &models.QueryRecord{
		Timestamp:   time.Now().UTC(),
		Status:      models.QueryStatusOK,
		PromptChars: 42,
		LatencyMs:   350,
		Count:       5,
		Limit:       20,
	}
	if err := database.InsertQuery(rec); err != nil {
		t.Fatalf("InsertQuery failed: %v", err)
	}
	if rec.ID == 0 {
		t.Error("InsertQuery should set the record ID")
	}
}

func TestInsertQuery_ZeroTimestamp(t *testing.T) {
	database := newTestDB(t)

	rec := &models.QueryRecord{Status: models.QueryStatusError}
	if err := database.InsertQuery(rec); err != nil {
		t.Fatalf("InsertQuery failed: %v", err)
	}

	records, err := database.GetRecentQueries(1)
	if err != nil {
		t.Fatalf("GetRecentQueries failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Timestamp.IsZero() {
		t.Error("zero timestamp should be replaced with now on insert")
	}
}

func TestGetRecentQueries(t *testing.T) {
	database := newTestDB(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := &models.QueryRecord{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Status:      models.QueryStatusOK,
			PromptChars: i,
			Count:       i,
			Limit:       20,
		}
		if err := database.InsertQuery(rec); err != nil {
			t.Fatalf("InsertQuery failed: %v", err)
		}
	}

	records, err := database.GetRecentQueries(3)
	if err != nil {
		t.Fatalf("GetRecentQueries failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	// Most recent first
	if records[0].PromptChars != 4 {
		t.Errorf("first record PromptChars = %d, want 4 (newest)", records[0].PromptChars)
	}
	if !records[0].Timestamp.After(records[1].Timestamp) {
		t.Error("records should be ordered newest first")
	}
}

func TestGetRecentQueries_Empty(t *testing.T) {
	database := newTestDB(t)

	records, err := database.GetRecentQueries(10)
	if err != nil {
		t.Fatalf("GetRecentQueries failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestGetHourlyCounts(t *testing.T) {
	database := newTestDB(t)

	now := time.Now().UTC()
	attempts := []struct {
		offset time.Duration
		status string
	}{
		{-10 * time.Minute, models.QueryStatusOK},
		{-20 * time.Minute, models.QueryStatusBlocked},
		{-30 * time.Minute, models.QueryStatusRateLimited},
		{-2 * time.Hour, models.QueryStatusOK},
		{-30 * time.Hour, models.QueryStatusOK}, // outside the 24h range
	}
	for _, a := range attempts {
		rec := &models.QueryRecord{Timestamp: now.Add(a.offset), Status: a.status}
		if err := database.InsertQuery(rec); err != nil {
			t.Fatalf("InsertQuery failed: %v", err)
		}
	}

	counts, err := database.GetHourlyCounts(24)
	if err != nil {
		t.Fatalf("GetHourlyCounts failed: %v", err)
	}

	var total, blocked int
	for _, c := range counts {
		total += c.Total
		blocked += c.Blocked
	}
	if total != 4 {
		t.Errorf("total = %d, want 4 attempts within 24h", total)
	}
	// Both "blocked" and "rate_limited" count as blocked
	if blocked != 2 {
		t.Errorf("blocked = %d, want 2", blocked)
	}
}

func TestGetAttemptStats(t *testing.T) {
	database := newTestDB(t)

	statuses := []string{
		models.QueryStatusOK, models.QueryStatusOK, models.QueryStatusOK,
		models.QueryStatusBlocked,
		models.QueryStatusRateLimited,
		models.QueryStatusError,
	}
	for _, status := range statuses {
		rec := &models.QueryRecord{Timestamp: time.Now().UTC(), Status: status}
		if err := database.InsertQuery(rec); err != nil {
			t.Fatalf("InsertQuery failed: %v", err)
		}
	}

	stats, err := database.GetAttemptStats()
	if err != nil {
		t.Fatalf("GetAttemptStats failed: %v", err)
	}

	if stats[models.QueryStatusOK] != 3 {
		t.Errorf("ok = %d, want 3", stats[models.QueryStatusOK])
	}
	if stats[models.QueryStatusBlocked] != 1 {
		t.Errorf("blocked = %d, want 1", stats[models.QueryStatusBlocked])
	}
	if stats[models.QueryStatusRateLimited] != 1 {
		t.Errorf("rate_limited = %d, want 1", stats[models.QueryStatusRateLimited])
	}
	if stats[models.QueryStatusError] != 1 {
		t.Errorf("error = %d, want 1", stats[models.QueryStatusError])
	}
}

func TestVacuum(t *testing.T) {
	database := newTestDB(t)
	if err := database.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}
