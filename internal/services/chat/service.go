// Package chat gates outbound queries behind the usage engine and talks to
// the assistant endpoint.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/stylist-chat-tui/internal/db"
	"github.com/j-veylop/stylist-chat-tui/internal/logger"
	"github.com/j-veylop/stylist-chat-tui/internal/models"
	"github.com/j-veylop/stylist-chat-tui/internal/services/usage"
)

const (
	queryEndpoint        = "/api/v1/query"
	maxResponseBytes     = 4 << 20
	maxErrorDetailBytes  = 1 << 20
	genericFailureNotice = "Unable to reach the stylist service. Please try again."
)

// Phase is the lifecycle stage of an outbound query.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseBlocked
	PhaseSending
	PhaseSucceeded
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseChecking:
		return "checking"
	case PhaseBlocked:
		return "blocked"
	case PhaseSending:
		return "sending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event represents a chat service event.
type Event struct {
	Error  error
	Result *models.QueryResult
	Type   EventType
	Phase  Phase
}

// EventType defines the type of chat event.
type EventType int

const (
	// EventPhaseChanged indicates the gateway moved to a new lifecycle phase.
	EventPhaseChanged EventType = iota
	// EventQueryCompleted indicates a submitted query finished, in either
	// direction. The Result carries the outcome.
	EventQueryCompleted
)

// RateLimitError is returned when the server rejects a query with 429. The
// server's verdict is final even if local counters disagreed.
type RateLimitError struct {
	Message   string
	ResetTime string
	Remaining int
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "rate limit exceeded"
}

// Config holds configuration for the chat service.
type Config struct {
	BaseURL      string
	QueryTimeout time.Duration
}

// Service is the query gateway. Every submission passes a local quota check
// first, then the server round trip; the server's 429 verdict overrides
// whatever the local counters said.
type Service struct {
	usage      *usage.Service
	history    *db.DB
	httpClient *http.Client
	now        func() time.Time
	eventChan  chan Event
	baseURL    string
	mu         sync.RWMutex
	phase      Phase
}

// New creates a new chat service. The history store may be nil when query
// recording is disabled.
func New(usageSvc *usage.Service, history *db.DB, config Config, now func() time.Time) *Service {
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = 60 * time.Second
	}
	if now == nil {
		now = time.Now
	}

	return &Service{
		usage:      usageSvc,
		history:    history,
		httpClient: &http.Client{Timeout: config.QueryTimeout},
		now:        now,
		eventChan:  make(chan Event, 100),
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		phase:      PhaseIdle,
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Phase returns the current lifecycle phase.
func (s *Service) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Submit runs one query through the full gateway lifecycle: reconcile, local
// quota check, optimistic increment, server round trip, counter correction.
// It blocks until the exchange completes and always lands back in the idle
// phase before returning.
func (s *Service) Submit(ctx context.Context, prompt string) (*models.QueryResult, error) {
	defer s.setPhase(PhaseIdle)

	s.setPhase(PhaseChecking)
	snap, _ := s.usage.Reconcile()

	if s.usage.HasReachedLimit(snap) {
		s.setPhase(PhaseBlocked)
		result := s.blockedResult(snap)
		s.recordAttempt(models.QueryStatusBlocked, prompt, 0, snap)
		s.sendEvent(Event{Type: EventQueryCompleted, Result: result})
		return result, nil
	}

	s.setPhase(PhaseSending)
	snap = s.usage.ApplyLocalIncrement()

	start := s.now()
	resp, err := s.postQuery(ctx, prompt)
	latency := s.now().Sub(start)

	if err != nil {
		if rlErr, ok := err.(*RateLimitError); ok {
			s.setPhase(PhaseBlocked)
			snap = s.usage.ApplyServerCounters(rlErr.Remaining, rlErr.ResetTime)
			result := &models.QueryResult{
				Message: rlErr.Message,
				Blocked: true,
				Usage:   s.usage.Summary(snap),
			}
			if result.Message == "" {
				result.Message = s.blockedResult(snap).Message
			}
			s.recordAttempt(models.QueryStatusRateLimited, prompt, latency, snap)
			s.sendEvent(Event{Type: EventQueryCompleted, Result: result})
			return result, nil
		}

		s.setPhase(PhaseFailed)
		s.recordAttempt(models.QueryStatusError, prompt, latency, snap)
		s.sendEvent(Event{Type: EventQueryCompleted, Error: err})
		logger.Error("query failed", "error", err)
		return nil, err
	}

	// The envelope's counters are optional. Without them the optimistic
	// increment stands until the next reconcile.
	if resp.RateLimit != nil {
		snap = s.usage.ApplyServerCounters(resp.RateLimit.Remaining, resp.RateLimit.ResetTime)
	}

	s.setPhase(PhaseSucceeded)
	result := &models.QueryResult{
		Response: resp.Response,
		Usage:    s.usage.Summary(snap),
	}
	s.recordAttempt(models.QueryStatusOK, prompt, latency, snap)
	s.sendEvent(Event{Type: EventQueryCompleted, Result: result})

	return result, nil
}

// blockedResult builds the user-facing refusal for a locally blocked query.
func (s *Service) blockedResult(snap models.UsageSnapshot) *models.QueryResult {
	return &models.QueryResult{
		Blocked: true,
		Message: fmt.Sprintf("Rate limit reached. You've used %d/%d queries. Next reset: %s",
			snap.Count, snap.Limit, usage.FormatReset(s.usage.TimeUntilReset(snap))),
		Usage: s.usage.Summary(snap),
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryRateLimit struct {
	ResetTime string `json:"reset_time"`
	Remaining int    `json:"remaining"`
}

type queryResponse struct {
	Response  string          `json:"response"`
	Query     string          `json:"query"`
	Status    string          `json:"status"`
	RateLimit *queryRateLimit `json:"rate_limit"`
}

// postQuery performs the POST exchange with the assistant endpoint.
func (s *Service) postQuery(ctx context.Context, prompt string) (*queryResponse, error) {
	body, err := json.Marshal(queryRequest{Query: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+queryEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", genericFailureNotice, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, parseRateLimitError(resp.Body)
	}

	if resp.StatusCode != http.StatusOK {
		detail := readErrorDetail(resp.Body)
		logger.Warn("query rejected", "status", resp.StatusCode, "detail", detail)
		return nil, fmt.Errorf("%s (status %d)", genericFailureNotice, resp.StatusCode)
	}

	var parsed queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &parsed, nil
}

// parseRateLimitError extracts the 429 payload. The detail field may be a
// structured object or a bare string depending on which server path rejected
// the request.
func parseRateLimitError(body io.Reader) *RateLimitError {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}

	data, err := io.ReadAll(io.LimitReader(body, maxErrorDetailBytes))
	if err != nil || json.Unmarshal(data, &envelope) != nil || len(envelope.Detail) == 0 {
		return &RateLimitError{}
	}

	var structured struct {
		Error     string `json:"error"`
		Message   string `json:"message"`
		ResetTime string `json:"reset_time"`
		Remaining int    `json:"remaining"`
	}
	if err := json.Unmarshal(envelope.Detail, &structured); err == nil && structured.Message != "" {
		return &RateLimitError{
			Message:   structured.Message,
			ResetTime: structured.ResetTime,
			Remaining: structured.Remaining,
		}
	}

	var plain string
	if err := json.Unmarshal(envelope.Detail, &plain); err == nil {
		return &RateLimitError{Message: plain}
	}

	return &RateLimitError{}
}

// readErrorDetail extracts a human-readable detail from a non-429 error body.
func readErrorDetail(body io.Reader) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}

	data, err := io.ReadAll(io.LimitReader(body, maxErrorDetailBytes))
	if err != nil || json.Unmarshal(data, &envelope) != nil {
		return ""
	}

	var plain string
	if err := json.Unmarshal(envelope.Detail, &plain); err == nil {
		return plain
	}
	return string(envelope.Detail)
}

// recordAttempt persists one gateway attempt to the history store.
func (s *Service) recordAttempt(status string, prompt string, latency time.Duration, snap models.UsageSnapshot) {
	if s.history == nil {
		return
	}

	rec := &models.QueryRecord{
		Timestamp:   s.now(),
		Status:      status,
		PromptChars: len(prompt),
		LatencyMs:   latency.Milliseconds(),
		Count:       snap.Count,
		Limit:       snap.Limit,
	}
	if err := s.history.InsertQuery(rec); err != nil {
		logger.Warn("failed to record query attempt", "error", err)
	}
}

// setPhase transitions the gateway and notifies subscribers.
func (s *Service) setPhase(phase Phase) {
	s.mu.Lock()
	if s.phase == phase {
		s.mu.Unlock()
		return
	}
	s.phase = phase
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventPhaseChanged, Phase: phase})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
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
