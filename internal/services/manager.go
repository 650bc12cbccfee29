// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/stylist-chat-tui/internal/config"
	"github.com/j-veylop/stylist-chat-tui/internal/db"
	"github.com/j-veylop/stylist-chat-tui/internal/models"
	"github.com/j-veylop/stylist-chat-tui/internal/services/chat"
	"github.com/j-veylop/stylist-chat-tui/internal/services/usage"
	"github.com/j-veylop/stylist-chat-tui/internal/store"
)

type (
	// UsageUpdatedEvent is emitted when the reconciled usage snapshot changes.
	UsageUpdatedEvent struct {
		Snapshot     models.UsageSnapshot
		Connectivity models.Connectivity
	}

	// UsageRefreshingEvent is emitted when a reconciliation round starts.
	UsageRefreshingEvent struct{}

	// WindowResetEvent is emitted when the usage window resets to defaults.
	WindowResetEvent struct {
		Snapshot models.UsageSnapshot
	}

	// QueryPhaseEvent is emitted when the query gateway changes phase.
	QueryPhaseEvent struct {
		Phase chat.Phase
	}

	// QueryCompletedEvent is emitted when a submitted query finishes.
	QueryCompletedEvent struct {
		Result *models.QueryResult
		Error  error
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Error   error
		Service string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UsageUpdatedEvent) isServiceEvent()    {}
func (UsageRefreshingEvent) isServiceEvent() {}
func (WindowResetEvent) isServiceEvent()     {}
func (QueryPhaseEvent) isServiceEvent()      {}
func (QueryCompletedEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()           {}

// Manager orchestrates services and event routing.
type Manager struct {
	store        *store.Store
	usage        *usage.Service
	chat         *chat.Service
	database     *db.DB
	eventChan    chan ServiceEvent
	stopChan     chan struct{}
	mu           sync.RWMutex
	subscribers  []chan<- ServiceEvent
	wasAtLimit   bool
	limitSeeded  bool
	closeOnce    sync.Once
	notification bool
}

// NewManager creates a new service manager and starts the background usage
// reconciliation loop.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		eventChan:    make(chan ServiceEvent, 100),
		stopChan:     make(chan struct{}),
		notification: true,
	}

	var err error
	m.store, err = store.New(cfg.SnapshotPath, cfg.QueryLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	usageConfig := usage.Config{
		BaseURL:         cfg.APIBaseURL,
		DefaultLimit:    cfg.QueryLimit,
		WindowLength:    cfg.WindowLength,
		RefreshInterval: cfg.UsageRefreshInterval,
		RequestTimeout:  cfg.RequestTimeout,
	}
	m.usage = usage.New(m.store, usageConfig, nil)

	chatConfig := chat.Config{
		BaseURL:      cfg.APIBaseURL,
		QueryTimeout: cfg.QueryTimeout,
	}
	m.chat = chat.New(m.usage, m.database, chatConfig, nil)

	go m.routeEvents()
	m.usage.Start()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.store.Events():
			m.handleStoreEvent(event)

		case event := <-m.usage.Events():
			m.handleUsageEvent(event)

		case event := <-m.chat.Events():
			m.handleChatEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleStoreEvent reacts to external rewrites of the snapshot file.
func (m *Manager) handleStoreEvent(event store.Event) {
	switch event.Type {
	case store.EventSnapshotChanged:
		m.usage.ReloadFromStore()

	case store.EventError:
		m.broadcast(ErrorEvent{
			Service: "store",
			Error:   event.Error,
		})
	}
}

func (m *Manager) handleUsageEvent(event usage.Event) {
	switch event.Type {
	case usage.EventUsageUpdated:
		m.broadcast(UsageUpdatedEvent{
			Snapshot:     event.Snapshot,
			Connectivity: event.Connectivity,
		})
		m.checkNotifications(event.Snapshot)

	case usage.EventUsageRefreshing:
		m.broadcast(UsageRefreshingEvent{})

	case usage.EventWindowReset:
		m.broadcast(WindowResetEvent{Snapshot: event.Snapshot})
		m.notifyWindowReset()
	}
}

func (m *Manager) handleChatEvent(event chat.Event) {
	switch event.Type {
	case chat.EventPhaseChanged:
		m.broadcast(QueryPhaseEvent{Phase: event.Phase})

	case chat.EventQueryCompleted:
		m.broadcast(QueryCompletedEvent{
			Result: event.Result,
			Error:  event.Error,
		})
	}
}

// checkNotifications raises a desktop notification when the quota crosses
// into exhaustion. Only the downward crossing fires; staying at the limit
// stays quiet.
func (m *Manager) checkNotifications(snap models.UsageSnapshot) {
	m.mu.Lock()
	atLimit := snap.HasReachedLimit()
	crossed := m.limitSeeded && atLimit && !m.wasAtLimit
	m.wasAtLimit = atLimit
	m.limitSeeded = true
	notify := m.notification
	m.mu.Unlock()

	if crossed && notify {
		title := "Query Limit Reached"
		body := fmt.Sprintf("You've used %d/%d queries. Next reset: %s",
			snap.Count, snap.Limit, usage.FormatReset(m.usage.TimeUntilReset(snap)))
		_ = beeep.Notify(title, body, "")
	}
}

func (m *Manager) notifyWindowReset() {
	m.mu.Lock()
	wasAtLimit := m.wasAtLimit
	m.wasAtLimit = false
	notify := m.notification
	m.mu.Unlock()

	if wasAtLimit && notify {
		_ = beeep.Notify("Usage Window Reset", "Your query quota has been refreshed.", "")
	}
}

// SetNotifications enables or disables desktop notifications.
func (m *Manager) SetNotifications(enabled bool) {
	m.mu.Lock()
	m.notification = enabled
	m.mu.Unlock()
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// SubmitQuery runs one query through the gateway.
func (m *Manager) SubmitQuery(ctx context.Context, prompt string) (*models.QueryResult, error) {
	return m.chat.Submit(ctx, prompt)
}

// RefreshUsage forces an immediate reconciliation round.
func (m *Manager) RefreshUsage() (models.UsageSnapshot, models.Connectivity) {
	return m.usage.Reconcile()
}

// ResetUsage resets the usage window to defaults and persists it.
func (m *Manager) ResetUsage() models.UsageSnapshot {
	snap := m.store.Reset()
	m.broadcast(WindowResetEvent{Snapshot: snap})
	return snap
}

// CurrentUsage returns the last reconciled snapshot without a network round
// trip.
func (m *Manager) CurrentUsage() (models.UsageSnapshot, models.Connectivity) {
	return m.usage.Snapshot()
}

// TimeUntilReset returns the countdown for a snapshot.
func (m *Manager) TimeUntilReset(snap models.UsageSnapshot) string {
	return usage.FormatReset(m.usage.TimeUntilReset(snap))
}

// Usage returns the usage service.
func (m *Manager) Usage() *usage.Service {
	return m.usage
}

// Chat returns the chat service.
func (m *Manager) Chat() *chat.Service {
	return m.chat
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// RecentQueries retrieves the most recent query attempts.
func (m *Manager) RecentQueries(limit int) ([]models.QueryRecord, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.GetRecentQueries(limit)
}

// HourlyCounts retrieves hourly attempt counts for charting.
func (m *Manager) HourlyCounts(hours int) ([]models.HourlyCount, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.GetHourlyCounts(hours)
}

// AttemptStats retrieves per-status attempt totals.
func (m *Manager) AttemptStats() (map[string]int, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.GetAttemptStats()
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopChan)
	})

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.usage != nil {
		if err := m.usage.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.store != nil {
		if err := m.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
