package app

import (
	"testing"
	"time"

	"github.com/j-veylop/stylist-chat-tui/internal/models"
	"github.com/j-veylop/stylist-chat-tui/internal/services/chat"
)

func TestNewState(t *testing.T) {
	s := NewState()

	if s.GetQueryPhase() != chat.PhaseIdle {
		t.Errorf("initial phase = %v, want idle", s.GetQueryPhase())
	}
	if _, conn := s.GetUsage(); conn != models.Disconnected {
		t.Errorf("initial connectivity = %v, want Disconnected", conn)
	}
	if s.MessageCount() != 0 {
		t.Errorf("initial message count = %d, want 0", s.MessageCount())
	}
	if len(s.GetNotifications()) != 0 {
		t.Error("initial notifications should be empty")
	}
}

func TestState_Usage(t *testing.T) {
	s := NewState()

	snap := models.UsageSnapshot{Count: 5, Limit: 20, ServerSynced: true}
	s.SetUsage(snap, models.Connected)

	got, conn := s.GetUsage()
	if got.Count != 5 {
		t.Errorf("Count = %d, want 5", got.Count)
	}
	if conn != models.Connected {
		t.Errorf("connectivity = %v, want Connected", conn)
	}
	if s.GetLastUpdated().IsZero() {
		t.Error("SetUsage should stamp lastUpdated")
	}
	if s.TimeSinceUpdate() < 0 {
		t.Error("TimeSinceUpdate should be non-negative")
	}
}

func TestState_Refreshing(t *testing.T) {
	s := NewState()

	if s.IsRefreshing() {
		t.Error("should not be refreshing initially")
	}
	s.SetRefreshing(true)
	if !s.IsRefreshing() {
		t.Error("should be refreshing after SetRefreshing(true)")
	}
}

func TestState_QueryPhase(t *testing.T) {
	s := NewState()
	s.SetQueryPhase(chat.PhaseSending)
	if s.GetQueryPhase() != chat.PhaseSending {
		t.Errorf("phase = %v, want sending", s.GetQueryPhase())
	}
}

func TestState_Messages(t *testing.T) {
	s := NewState()

	s.AppendMessage(models.ChatMessage{Role: models.RoleUser, Text: "hello"})
	s.AppendMessage(models.ChatMessage{Role: models.RoleAssistant, Text: "hi there"})

	if s.MessageCount() != 2 {
		t.Fatalf("message count = %d, want 2", s.MessageCount())
	}

	msgs := s.GetMessages()
	if msgs[0].Text != "hello" || msgs[1].Text != "hi there" {
		t.Error("messages should preserve insertion order")
	}

	// Mutating the copy must not affect state
	msgs[0].Text = "mutated"
	if s.GetMessages()[0].Text != "hello" {
		t.Error("GetMessages should return a copy")
	}

	s.ClearMessages()
	if s.MessageCount() != 0 {
		t.Errorf("message count after clear = %d, want 0", s.MessageCount())
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "test message", time.Minute)
	if id == "" {
		t.Fatal("AddNotification should return an ID")
	}

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifs))
	}
	if notifs[0].Message != "test message" {
		t.Errorf("Message = %q, want %q", notifs[0].Message, "test message")
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("notification should be removed")
	}
}

func TestState_NotificationsCapped(t *testing.T) {
	s := NewState()

	for i := 0; i < 15; i++ {
		s.AddNotification(NotificationInfo, "message", time.Minute)
	}

	if got := len(s.GetNotifications()); got != 10 {
		t.Errorf("got %d notifications, want cap of 10", got)
	}
}

func TestNotification_IsExpired(t *testing.T) {
	fresh := Notification{CreatedAt: time.Now(), Duration: time.Minute}
	if fresh.IsExpired() {
		t.Error("fresh notification should not be expired")
	}

	old := Notification{CreatedAt: time.Now().Add(-2 * time.Minute), Duration: time.Minute}
	if !old.IsExpired() {
		t.Error("old notification should be expired")
	}

	persistent := Notification{CreatedAt: time.Now().Add(-time.Hour), Duration: 0}
	if persistent.IsExpired() {
		t.Error("zero-duration notification should never expire")
	}
}

func TestState_ClearExpiredNotifications(t *testing.T) {
	s := NewState()

	s.AddNotification(NotificationInfo, "keep", time.Hour)
	s.mu.Lock()
	s.notifications = append(s.notifications, Notification{
		ID:        "expired",
		Message:   "drop",
		CreatedAt: time.Now().Add(-time.Hour),
		Duration:  time.Minute,
	})
	s.mu.Unlock()

	s.ClearExpiredNotifications()

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifs))
	}
	if notifs[0].Message != "keep" {
		t.Errorf("kept %q, want %q", notifs[0].Message, "keep")
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 || notifs[0].ID != LoadingNotificationID {
		t.Fatal("loading notification should be present with the fixed ID")
	}

	// Updating replaces the message in place
	s.SetLoadingNotification("still loading...")
	notifs = s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("got %d notifications, want 1 after update", len(notifs))
	}
	if notifs[0].Message != "still loading..." {
		t.Errorf("Message = %q, want updated text", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading notification should be cleared")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		nt   NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
	}
	for _, tt := range tests {
		if got := tt.nt.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
