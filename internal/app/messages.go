package app

import (
	"time"

	"github.com/j-veylop/stylist-chat-tui/internal/models"
	"github.com/j-veylop/stylist-chat-tui/internal/services"
	"github.com/j-veylop/stylist-chat-tui/internal/services/chat"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// UsageLoadedMsg contains the current usage snapshot and connectivity verdict.
type UsageLoadedMsg struct {
	Snapshot     models.UsageSnapshot
	Connectivity models.Connectivity
}

// UsageRefreshingMsg signals that a reconciliation round is in flight.
type UsageRefreshingMsg struct{}

// WindowResetMsg signals that the usage window was reset to defaults.
type WindowResetMsg struct {
	Snapshot models.UsageSnapshot
}

// QueryPhaseMsg signals a gateway phase change.
type QueryPhaseMsg struct {
	Phase chat.Phase
}

// SubmitQueryMsg requests submission of a prompt through the gateway.
type SubmitQueryMsg struct {
	Prompt string
}

// QueryResultMsg contains the outcome of a submitted query.
type QueryResultMsg struct {
	Result *models.QueryResult
	Error  error
	Prompt string
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "usage", "history"
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
