package history

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stylist-chat-tui/internal/app"
	"github.com/j-veylop/stylist-chat-tui/internal/models"
)

func newTestModel() *Model {
	m := New(app.NewState(), nil)
	m.SetSize(100, 40)
	return m
}

func sampleLoadedMsg() historyLoadedMsg {
	now := time.Now().UTC()
	return historyLoadedMsg{
		records: []models.QueryRecord{
			{ID: 2, Timestamp: now, Status: models.QueryStatusOK, PromptChars: 12, LatencyMs: 340, Count: 4, Limit: 20},
			{ID: 1, Timestamp: now.Add(-time.Hour), Status: models.QueryStatusBlocked, PromptChars: 8, LatencyMs: 2, Count: 20, Limit: 20},
		},
		hourly: []models.HourlyCount{
			{Hour: now.Add(-2 * time.Hour).Truncate(time.Hour), Total: 3, Blocked: 1},
			{Hour: now.Add(-time.Hour).Truncate(time.Hour), Total: 2, Blocked: 0},
		},
		stats: map[string]int{
			models.QueryStatusOK:          5,
			models.QueryStatusBlocked:     1,
			models.QueryStatusRateLimited: 1,
			models.QueryStatusError:       2,
		},
	}
}

func TestHistory_New(t *testing.T) {
	m := newTestModel()

	if m.rangeIdx != 0 {
		t.Errorf("rangeIdx = %d, want 0", m.rangeIdx)
	}
	if m.loading {
		t.Error("new model should not be loading before Init")
	}
}

func TestHistory_Init(t *testing.T) {
	m := newTestModel()

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init returned nil cmd")
	}
	if !m.loading {
		t.Error("Init should mark the model as loading")
	}
}

func TestHistory_LoadWithoutServices(t *testing.T) {
	m := newTestModel()

	msg := m.loadHistoryCmd()()
	errMsg, ok := msg.(historyErrorMsg)
	if !ok {
		t.Fatalf("loadHistoryCmd returned %T, want historyErrorMsg", msg)
	}
	if errMsg.err == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestHistory_HandleLoadedMsg(t *testing.T) {
	m := newTestModel()
	m.loading = true

	m.Update(sampleLoadedMsg())

	if m.loading {
		t.Error("loading should clear after data arrives")
	}
	if len(m.records) != 2 {
		t.Errorf("records = %d, want 2", len(m.records))
	}
	if len(m.hourly) != 2 {
		t.Errorf("hourly = %d, want 2", len(m.hourly))
	}
	if m.stats[models.QueryStatusOK] != 5 {
		t.Errorf("ok stat = %d, want 5", m.stats[models.QueryStatusOK])
	}
	if m.lastRefresh.IsZero() {
		t.Error("lastRefresh should be set")
	}
	if m.errorMsg != "" {
		t.Errorf("errorMsg = %q, want empty", m.errorMsg)
	}
}

func TestHistory_HandleErrorMsg(t *testing.T) {
	m := newTestModel()
	m.loading = true

	_, cmd := m.Update(historyErrorMsg{err: "database is locked"})

	if m.loading {
		t.Error("loading should clear on error")
	}
	if m.errorMsg != "database is locked" {
		t.Errorf("errorMsg = %q", m.errorMsg)
	}
	if cmd == nil {
		t.Fatal("expected a notification command")
	}
	notif, ok := cmd().(app.AddNotificationMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want AddNotificationMsg", cmd())
	}
	if notif.Type != app.NotificationError {
		t.Errorf("notification type = %v, want error", notif.Type)
	}
}

func TestHistory_ToggleRange(t *testing.T) {
	m := newTestModel()

	for i, want := range []int{1, 2, 0} {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
		if m.rangeIdx != want {
			t.Errorf("toggle %d: rangeIdx = %d, want %d", i, m.rangeIdx, want)
		}
		if cmd == nil {
			t.Errorf("toggle %d: expected a reload command", i)
		}
		if !m.loading {
			t.Errorf("toggle %d: expected loading", i)
		}
		m.loading = false
	}
}

func TestHistory_RefreshKey(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	if !m.loading {
		t.Error("expected loading after refresh key")
	}
}

func TestHistory_ReloadOnTabSwitch(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(app.TabSwitchMsg{Tab: app.TabHistory})
	if cmd == nil {
		t.Fatal("switching to the history tab should trigger a reload")
	}

	m.loading = false
	_, cmd = m.Update(app.TabSwitchMsg{Tab: app.TabChat})
	if m.loading {
		t.Error("switching away should not trigger a reload")
	}
}

func TestHistory_ReloadOnQueryResult(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(app.QueryResultMsg{})
	if cmd == nil {
		t.Fatal("a new query result should trigger a reload")
	}
	if !m.loading {
		t.Error("expected loading after query result")
	}
}

func TestHistory_ViewLoading(t *testing.T) {
	m := newTestModel()
	m.loading = true

	view := m.View()
	if !strings.Contains(view, "Loading query history") {
		t.Error("expected loading placeholder")
	}
}

func TestHistory_ViewError(t *testing.T) {
	m := newTestModel()
	m.errorMsg = "something broke"

	view := m.View()
	if !strings.Contains(view, "something broke") {
		t.Error("expected the error message in the view")
	}
}

func TestHistory_ViewEmpty(t *testing.T) {
	m := newTestModel()
	m.lastRefresh = time.Now()

	view := m.View()
	if !strings.Contains(view, "No queries recorded yet") {
		t.Error("expected empty-state message")
	}
}

func TestHistory_ViewPopulated(t *testing.T) {
	m := newTestModel()
	m.Update(sampleLoadedMsg())

	view := m.View()
	for _, want := range []string{"Query History", "Attempt Totals", "5 answered", "2 blocked", "2 failed", "Hourly Attempts", "Recent Attempts"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHistory_Help(t *testing.T) {
	m := newTestModel()

	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp should not be empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp should not be empty")
	}
}
