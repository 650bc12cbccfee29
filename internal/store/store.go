// Package store provides durable persistence for the usage snapshot with file
// watching and change notifications.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/stylist-chat-tui/internal/logger"
	"github.com/j-veylop/stylist-chat-tui/internal/models"
)

// Event represents a store event.
type Event struct {
	Error error
	Type  EventType
}

// EventType defines the type of store event.
type EventType int

const (
	// EventSnapshotChanged indicates the snapshot file was rewritten externally.
	EventSnapshotChanged EventType = iota
	// EventError indicates a watcher error.
	EventError
)

// Store persists the single usage snapshot to a JSON file. Load, Save and Reset
// are total: storage corruption is absorbed here and never reaches the caller.
type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	defaultLimit  int
	closeOnce     sync.Once
}

// New creates a snapshot store and starts watching the file for external changes.
func New(filePath string, defaultLimit int, now func() time.Time) (*Store, error) {
	if now == nil {
		now = time.Now
	}

	s := &Store{
		filePath:     filePath,
		defaultLimit: defaultLimit,
		now:          now,
		eventChan:    make(chan Event, 16),
		stopChan:     make(chan struct{}),
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	return s, nil
}

// Events returns the event channel for subscribing to external snapshot changes.
func (s *Store) Events() <-chan Event {
	return s.eventChan
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.filePath
}

// rawSnapshot mirrors the persisted JSON with every field optional so that each
// one can be validated and defaulted independently.
type rawSnapshot struct {
	Timestamp       json.RawMessage `json:"timestamp"`
	ServerResetTime json.RawMessage `json:"serverResetTime"`
	Count           json.RawMessage `json:"count"`
	Limit           json.RawMessage `json:"limit"`
	ServerSynced    json.RawMessage `json:"serverSync"`
}

// Load reads the persisted snapshot. It never fails: a missing file, a decode
// error, or an invalid individual field each fall back to defaults for that
// field, with the anomaly logged.
func (s *Store) Load() models.UsageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() models.UsageSnapshot {
	snap := models.DefaultSnapshot(s.defaultLimit, s.now())

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read usage snapshot, using defaults", "path", s.filePath, "error", err)
		}
		return snap
	}

	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("corrupt usage snapshot, using defaults", "path", s.filePath, "error", err)
		return snap
	}

	if raw.Count != nil {
		var count int
		if err := json.Unmarshal(raw.Count, &count); err == nil && count >= 0 {
			snap.Count = count
		} else {
			logger.Warn("invalid count in usage snapshot, defaulting", "error", err)
		}
	}

	if raw.Limit != nil {
		var limit int
		if err := json.Unmarshal(raw.Limit, &limit); err == nil && limit > 0 {
			snap.Limit = limit
		} else {
			logger.Warn("invalid limit in usage snapshot, defaulting", "error", err)
		}
	}

	if raw.Timestamp != nil {
		var ts time.Time
		if err := json.Unmarshal(raw.Timestamp, &ts); err == nil && !ts.IsZero() {
			snap.Timestamp = ts
		} else {
			logger.Warn("invalid timestamp in usage snapshot, defaulting", "error", err)
		}
	}

	if raw.ServerSynced != nil {
		var synced bool
		if err := json.Unmarshal(raw.ServerSynced, &synced); err == nil {
			snap.ServerSynced = synced
		}
	}

	if raw.ServerResetTime != nil {
		var reset string
		if err := json.Unmarshal(raw.ServerResetTime, &reset); err == nil {
			snap.ServerResetTime = reset
		}
	}

	return snap
}

// Save writes the snapshot. Fire-and-forget: failures are logged, never
// propagated, so a broken disk degrades persistence, not the engine.
func (s *Store) Save(snap models.UsageSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveLocked(snap); err != nil {
		logger.Error("failed to persist usage snapshot", "path", s.filePath, "error", err)
	}
}

func (s *Store) saveLocked(snap models.UsageSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Reset writes and returns the default snapshot, starting a new local window.
func (s *Store) Reset() models.UsageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.DefaultSnapshot(s.defaultLimit, s.now())
	if err := s.saveLocked(snap); err != nil {
		logger.Error("failed to persist reset snapshot", "path", s.filePath, "error", err)
	}
	return snap
}

// startWatcher starts the file system watcher.
func (s *Store) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory (to catch file creation/deletion)
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Store) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			// Only care about the snapshot file, and ignore our own temp file
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				// Debounce rapid changes
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, func() {
					s.sendEvent(Event{Type: EventSnapshotChanged})
				})
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Store) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
