package usage

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/j-veylop/stylist-chat-tui/internal/models"
	"github.com/j-veylop/stylist-chat-tui/internal/store"
)

// Event represents a usage service event.
type Event struct {
	Error        error
	Snapshot     models.UsageSnapshot
	Connectivity models.Connectivity
	Type         EventType
}

// EventType defines the type of usage event.
type EventType int

const (
	// EventUsageUpdated indicates the reconciled snapshot has changed.
	EventUsageUpdated EventType = iota
	// EventUsageRefreshing indicates a reconciliation round is in progress.
	EventUsageRefreshing
	// EventWindowReset indicates the usage window was reset to defaults.
	EventWindowReset
)

// Config holds configuration for the usage service.
type Config struct {
	BaseURL         string
	DefaultLimit    int
	WindowLength    time.Duration
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:    20,
		WindowLength:    5 * time.Hour,
		RefreshInterval: 10 * time.Second,
		RequestTimeout:  10 * time.Second,
	}
}

// Service reconciles the persisted usage snapshot against the server's
// authoritative rate-limit status. Server data wins when fresh; when the server
// is unreachable the engine degrades to local window arithmetic instead of
// blocking the client.
type Service struct {
	store        *store.Store
	httpClient   *http.Client
	now          func() time.Time
	eventChan    chan Event
	stopChan     chan struct{}
	pollTicker   *time.Ticker
	config       Config
	mu           sync.RWMutex
	current      models.UsageSnapshot
	connectivity models.Connectivity
	closeOnce    sync.Once
}

// New creates a new usage service. The clock is injectable for deterministic
// tests; nil means time.Now.
func New(st *store.Store, config Config, now func() time.Time) *Service {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if config.WindowLength <= 0 {
		config.WindowLength = DefaultConfig().WindowLength
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultConfig().RefreshInterval
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if now == nil {
		now = time.Now
	}

	s := &Service{
		store:        st,
		httpClient:   &http.Client{Timeout: config.RequestTimeout},
		now:          now,
		eventChan:    make(chan Event, 100),
		stopChan:     make(chan struct{}),
		config:       config,
		connectivity: models.Disconnected,
	}

	s.current = st.Load()

	return s
}

// Start launches the background reconciliation loop.
func (s *Service) Start() {
	go s.pollLoop()
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Window returns the configured usage window length.
func (s *Service) Window() time.Duration {
	return s.config.WindowLength
}

// Snapshot returns the last reconciled snapshot and connectivity verdict
// without touching the network. Used for instantaneous UI rendering before the
// first probe round-trip completes.
func (s *Service) Snapshot() (models.UsageSnapshot, models.Connectivity) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.connectivity
}

// Reconcile probes the server and merges its status with the persisted
// snapshot into one coherent view. The result is persisted before returning.
func (s *Service) Reconcile() (models.UsageSnapshot, models.Connectivity) {
	s.sendEvent(Event{Type: EventUsageRefreshing})

	status := s.fetchStatus()
	snap, conn := s.reconcile(s.store.Load(), status)

	s.store.Save(snap)

	s.mu.Lock()
	s.current = snap
	s.connectivity = conn
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventUsageUpdated, Snapshot: snap, Connectivity: conn})

	return snap, conn
}

// ReloadFromStore refreshes the in-memory snapshot from disk after an external
// rewrite, without a network round trip.
func (s *Service) ReloadFromStore() models.UsageSnapshot {
	snap := s.store.Load()
	snap = s.expireIfStale(snap)

	s.mu.Lock()
	s.current = snap
	conn := s.connectivity
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventUsageUpdated, Snapshot: snap, Connectivity: conn})
	return snap
}

// reconcile is a pure function of its two inputs. Server status, when present,
// is authoritative; otherwise the persisted snapshot is degraded to unsynced
// and checked for local window expiry.
func (s *Service) reconcile(persisted models.UsageSnapshot, status *models.ServerStatus) (models.UsageSnapshot, models.Connectivity) {
	now := s.now()

	if status != nil {
		limit := status.Limit()
		if limit <= 0 {
			limit = s.config.DefaultLimit
		}
		snap := models.UsageSnapshot{
			Count:           status.QueriesUsed,
			Limit:           limit,
			Timestamp:       now,
			ServerSynced:    true,
			ServerResetTime: status.ResetTime,
		}
		return snap, models.Connected
	}

	snap := persisted
	snap.ServerSynced = false
	snap.ServerResetTime = ""

	if now.Sub(snap.Timestamp) > s.config.WindowLength {
		snap = models.DefaultSnapshot(s.config.DefaultLimit, now)
		s.sendEvent(Event{Type: EventWindowReset, Snapshot: snap, Connectivity: models.Disconnected})
	}

	return snap, models.Disconnected
}

// expireIfStale applies the local window expiry check to a snapshot.
func (s *Service) expireIfStale(snap models.UsageSnapshot) models.UsageSnapshot {
	if s.now().Sub(snap.Timestamp) > s.config.WindowLength {
		return models.DefaultSnapshot(s.config.DefaultLimit, s.now())
	}
	return snap
}

// TimeUntilReset computes how long until the current window resets. Server
// reset time is used when the snapshot is synced and the marker parses as an
// absolute instant; sentinels and malformed values fall back to local window
// arithmetic. Never returns a negative duration; hitting zero on the local
// path resets the window as a side effect.
func (s *Service) TimeUntilReset(snap models.UsageSnapshot) time.Duration {
	now := s.now()

	if snap.ServerSynced && snap.ServerResetTime != "" {
		if reset, ok := parseResetTime(snap.ServerResetTime, now, s.config.WindowLength); ok {
			d := reset.Sub(now)
			if d < 0 {
				return 0
			}
			return d
		}
	}

	d := s.config.WindowLength - now.Sub(snap.Timestamp)
	if d <= 0 {
		reset := s.store.Reset()
		s.mu.Lock()
		s.current = reset
		s.mu.Unlock()
		s.sendEvent(Event{Type: EventWindowReset, Snapshot: reset, Connectivity: s.connectivity})
		return 0
	}
	return d
}

// HasReachedLimit reports whether the snapshot has exhausted its quota.
func (s *Service) HasReachedLimit(snap models.UsageSnapshot) bool {
	return snap.HasReachedLimit()
}

// ApplyLocalIncrement counts one consumed query against the current snapshot
// and persists it. Returns the updated snapshot.
func (s *Service) ApplyLocalIncrement() models.UsageSnapshot {
	s.mu.Lock()
	snap := s.current
	snap.Count++
	s.current = snap
	conn := s.connectivity
	s.mu.Unlock()

	s.store.Save(snap)
	s.sendEvent(Event{Type: EventUsageUpdated, Snapshot: snap, Connectivity: conn})
	return snap
}

// ApplyServerCounters overwrites the optimistic local count with the counters
// the server attached to a query response. Server truth wins on every exchange.
func (s *Service) ApplyServerCounters(remaining int, resetTime string) models.UsageSnapshot {
	s.mu.Lock()
	snap := s.current
	count := snap.Limit - remaining
	if count < 0 {
		count = 0
	}
	snap.Count = count
	snap.ServerSynced = true
	snap.ServerResetTime = resetTime
	s.current = snap
	conn := s.connectivity
	s.mu.Unlock()

	s.store.Save(snap)
	s.sendEvent(Event{Type: EventUsageUpdated, Snapshot: snap, Connectivity: conn})
	return snap
}

// Summary builds the usage digest for a snapshot.
func (s *Service) Summary(snap models.UsageSnapshot) models.UsageSummary {
	return models.UsageSummary{
		Count:     snap.Count,
		Limit:     snap.Limit,
		Remaining: snap.Remaining(),
		ResetIn:   s.TimeUntilReset(snap),
	}
}

// pollLoop runs the periodic background reconciliation.
func (s *Service) pollLoop() {
	// Initial reconciliation
	s.Reconcile()

	s.pollTicker = time.NewTicker(s.config.RefreshInterval)
	defer s.pollTicker.Stop()

	for {
		select {
		case <-s.pollTicker.C:
			s.Reconcile()
		case <-s.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
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

// Close stops the service and cleans up resources.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	return nil
}

// FormatReset renders a duration as the user-facing "Xh Ym" countdown.
func FormatReset(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%dh %dm", h, m)
}
