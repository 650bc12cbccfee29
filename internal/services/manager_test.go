package services

import (
	"testing"
	"time"

	"github.com/j-veylop/stylist-chat-tui/internal/config"
	"github.com/j-veylop/stylist-chat-tui/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	tmpDir := t.TempDir()
	cfg := &config.Config{
		APIBaseURL:           "http://127.0.0.1:1", // unreachable, probes fail fast
		SnapshotPath:         tmpDir + "/usage.json",
		DatabasePath:         tmpDir + "/history.db",
		QueryLimit:           20,
		WindowLength:         5 * time.Hour,
		UsageRefreshInterval: time.Minute,
		RequestTimeout:       100 * time.Millisecond,
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	// Desktop notifications don't work in a test environment
	mgr.SetNotifications(false)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t)

	if mgr.Usage() == nil {
		t.Error("Usage service should be initialized")
	}
	if mgr.Chat() == nil {
		t.Error("Chat service should be initialized")
	}
	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
}

func TestManager_CurrentUsage(t *testing.T) {
	mgr := newTestManager(t)

	snap, _ := mgr.CurrentUsage()
	if snap.Limit != 20 {
		t.Errorf("Limit = %d, want 20", snap.Limit)
	}
}

func TestManager_RefreshUsage(t *testing.T) {
	mgr := newTestManager(t)

	// Server unreachable, so the reconciliation degrades to local state
	snap, conn := mgr.RefreshUsage()
	if conn != models.Disconnected {
		t.Errorf("connectivity = %v, want Disconnected", conn)
	}
	if snap.ServerSynced {
		t.Error("snapshot should not be server synced")
	}
}

func TestManager_ResetUsage(t *testing.T) {
	mgr := newTestManager(t)

	snap := mgr.ResetUsage()
	if snap.Count != 0 {
		t.Errorf("Count = %d, want 0 after reset", snap.Count)
	}
}

func TestManager_TimeUntilReset(t *testing.T) {
	mgr := newTestManager(t)

	snap := models.UsageSnapshot{Count: 1, Limit: 20, Timestamp: time.Now()}
	countdown := mgr.TimeUntilReset(snap)
	if countdown != "4h 59m" && countdown != "5h 0m" {
		t.Errorf("countdown = %q, want about 5h", countdown)
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t)

	ch, cmd := mgr.Subscribe()
	if ch == nil {
		t.Error("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Error("Subscribe returned nil command")
	}

	mgr.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed after Unsubscribe")
		}
	default:
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t)

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	event := UsageRefreshingEvent{}
	mgr.broadcast(event)

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if _, ok := e.(UsageRefreshingEvent); ok {
				return
			}
			// Background reconciliation may interleave other events
		case <-deadline:
			t.Fatal("timeout waiting for broadcast")
		}
	}
}

func TestManager_CheckNotifications(t *testing.T) {
	mgr := newTestManager(t)

	// Let the initial background reconciliation settle so it doesn't
	// interleave with the observations below.
	time.Sleep(200 * time.Millisecond)

	// First observation seeds the limit state without firing
	mgr.checkNotifications(models.UsageSnapshot{Count: 5, Limit: 20})

	mgr.mu.Lock()
	if mgr.wasAtLimit {
		t.Error("5/20 should not register as at limit")
	}
	seeded := mgr.limitSeeded
	mgr.mu.Unlock()
	if !seeded {
		t.Error("first observation should seed the limit state")
	}

	// Crossing into exhaustion flips wasAtLimit
	mgr.checkNotifications(models.UsageSnapshot{Count: 20, Limit: 20})
	mgr.mu.Lock()
	atLimit := mgr.wasAtLimit
	mgr.mu.Unlock()
	if !atLimit {
		t.Error("20/20 should register as at limit")
	}

	// Window reset clears the flag
	mgr.notifyWindowReset()
	mgr.mu.Lock()
	atLimit = mgr.wasAtLimit
	mgr.mu.Unlock()
	if atLimit {
		t.Error("window reset should clear the at-limit flag")
	}
}

func TestManager_HistoryQueries(t *testing.T) {
	mgr := newTestManager(t)

	records, err := mgr.RecentQueries(10)
	if err != nil {
		t.Fatalf("RecentQueries failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0 in a fresh database", len(records))
	}

	if _, err := mgr.HourlyCounts(24); err != nil {
		t.Errorf("HourlyCounts failed: %v", err)
	}

	stats, err := mgr.AttemptStats()
	if err != nil {
		t.Fatalf("AttemptStats failed: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("got %d stats entries, want 0", len(stats))
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- UsageRefreshingEvent{}

	cmd := WaitForEvent(ch)
	if msg := cmd(); msg == nil {
		t.Error("WaitForEvent cmd returned nil msg")
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = UsageUpdatedEvent{}
	var _ ServiceEvent = UsageRefreshingEvent{}
	var _ ServiceEvent = WindowResetEvent{}
	var _ ServiceEvent = QueryPhaseEvent{}
	var _ ServiceEvent = QueryCompletedEvent{}
	var _ ServiceEvent = ErrorEvent{}
}

func TestManager_CloseTwice(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{
		APIBaseURL:   "http://127.0.0.1:1",
		SnapshotPath: tmpDir + "/usage.json",
		DatabasePath: tmpDir + "/history.db",
		QueryLimit:   20,
	}
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := mgr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
