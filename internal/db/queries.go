package db

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/stylist-chat-tui/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// InsertQuery logs a query attempt to the database.
func (db *DB) InsertQuery(rec *models.QueryRecord) error {
	query := `
		INSERT INTO queries (timestamp, status, prompt_chars, latency_ms, count, query_limit)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	timestamp := rec.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format(timeLayout),
		rec.Status,
		rec.PromptChars,
		rec.LatencyMs,
		rec.Count,
		rec.Limit,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		rec.ID = id
	}

	return nil
}

// GetRecentQueries returns the most recent query attempts.
func (db *DB) GetRecentQueries(limit int) ([]models.QueryRecord, error) {
	query := `
		SELECT id, timestamp, status, prompt_chars, latency_ms, count, query_limit
		FROM queries
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.QueryRecord
	for rows.Next() {
		var rec models.QueryRecord
		var ts string

		err := rows.Scan(
			&rec.ID,
			&ts,
			&rec.Status,
			&rec.PromptChars,
			&rec.LatencyMs,
			&rec.Count,
			&rec.Limit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query record: %w", err)
		}

		if parsed, err := time.ParseInLocation(timeLayout, ts, time.UTC); err == nil {
			rec.Timestamp = parsed
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetHourlyCounts returns per-hour query counts over the last N hours.
func (db *DB) GetHourlyCounts(hours int) ([]models.HourlyCount, error) {
	query := `
		SELECT
			strftime('%Y-%m-%d %H:00:00', timestamp) as hour,
			COUNT(*) as total,
			SUM(CASE WHEN status IN ('blocked', 'rate_limited') THEN 1 ELSE 0 END) as blocked
		FROM queries
		WHERE timestamp >= datetime('now', ?)
		GROUP BY hour
		ORDER BY hour ASC
	`

	rows, err := db.QueryContext(context.Background(), query, fmt.Sprintf("-%d hours", hours))
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []models.HourlyCount
	for rows.Next() {
		var hc models.HourlyCount
		var hour string

		if err := rows.Scan(&hour, &hc.Total, &hc.Blocked); err != nil {
			return nil, fmt.Errorf("failed to scan hourly count: %w", err)
		}

		if parsed, err := time.ParseInLocation(timeLayout, hour, time.UTC); err == nil {
			hc.Hour = parsed
		}
		counts = append(counts, hc)
	}

	return counts, rows.Err()
}

// GetAttemptStats returns aggregate counts per outcome.
func (db *DB) GetAttemptStats() (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM queries GROUP BY status`

	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempt stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan attempt stats: %w", err)
		}
		stats[status] = n
	}

	return stats, rows.Err()
}
