package chat

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stylist-chat-tui/internal/app"
	"github.com/j-veylop/stylist-chat-tui/internal/models"
)

func newTestModel() *Model {
	m := New(app.NewState(), nil)
	m.SetSize(80, 24)
	return m
}

func TestNew(t *testing.T) {
	m := newTestModel()
	if m == nil {
		t.Fatal("New returned nil")
	}
	if !m.CapturingInput() {
		t.Error("input should start focused")
	}
	if m.Init() == nil {
		t.Error("Init should return a command")
	}
}

func TestModel_BlurAndFocus(t *testing.T) {
	m := newTestModel()

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEsc})
	if m.CapturingInput() {
		t.Error("esc should blur the input")
	}

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}})
	if !m.CapturingInput() {
		t.Error("i should refocus the input")
	}
}

func TestModel_TypingGoesToInput(t *testing.T) {
	m := newTestModel()

	for _, r := range "hello" {
		m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	if m.input.Value() != "hello" {
		t.Errorf("input value = %q, want %q", m.input.Value(), "hello")
	}
}

func TestModel_SubmitEmptyPrompt(t *testing.T) {
	m := newTestModel()

	if cmd := m.submit(); cmd != nil {
		t.Error("empty prompt should not produce a command")
	}
	if m.state.MessageCount() != 0 {
		t.Error("empty prompt should not append a message")
	}
}

func TestModel_SubmitAppendsUserMessage(t *testing.T) {
	m := newTestModel()
	m.input.SetValue("what goes with denim?")

	cmd := m.submit()
	if cmd == nil {
		t.Fatal("submit should produce a command")
	}

	msgs := m.state.GetMessages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Role != models.RoleUser {
		t.Errorf("Role = %v, want user", msgs[0].Role)
	}
	if msgs[0].Text != "what goes with denim?" {
		t.Errorf("Text = %q, want the prompt", msgs[0].Text)
	}
	if m.input.Value() != "" {
		t.Error("input should be cleared after submit")
	}
	if !m.sending {
		t.Error("sending flag should be set")
	}

	// While in flight, a second submit is suppressed
	m.input.SetValue("another one")
	if cmd := m.submit(); cmd != nil {
		t.Error("submit while sending should not produce a command")
	}
}

func TestModel_HandleQueryResult_Success(t *testing.T) {
	m := newTestModel()
	m.sending = true

	result := &models.QueryResult{Response: "Try a leather belt."}
	m.handleQueryResult(app.QueryResultMsg{Result: result})

	if m.sending {
		t.Error("sending flag should clear")
	}

	msgs := m.state.GetMessages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Role != models.RoleAssistant {
		t.Errorf("Role = %v, want assistant", msgs[0].Role)
	}
	if msgs[0].Text != "Try a leather belt." {
		t.Errorf("Text = %q, want the response", msgs[0].Text)
	}
}

func TestModel_HandleQueryResult_Blocked(t *testing.T) {
	m := newTestModel()
	m.sending = true

	result := &models.QueryResult{
		Blocked: true,
		Message: "Rate limit reached. You've used 20/20 queries. Next reset: 2h 15m",
	}
	cmds := m.handleQueryResult(app.QueryResultMsg{Result: result})

	msgs := m.state.GetMessages()
	if len(msgs) != 1 || msgs[0].Role != models.RoleSystem {
		t.Fatal("blocked result should append a system notice")
	}
	if !strings.Contains(msgs[0].Text, "20/20") {
		t.Errorf("notice = %q, want the counters", msgs[0].Text)
	}

	if len(cmds) == 0 {
		t.Fatal("blocked result should produce a notification command")
	}
	msg := cmds[0]()
	addMsg, ok := msg.(app.AddNotificationMsg)
	if !ok || addMsg.Type != app.NotificationWarning {
		t.Error("blocked result should raise a warning notification")
	}
}

func TestModel_HandleQueryResult_Error(t *testing.T) {
	m := newTestModel()
	m.sending = true

	cmds := m.handleQueryResult(app.QueryResultMsg{Error: errors.New("connection refused")})

	msgs := m.state.GetMessages()
	if len(msgs) != 1 || msgs[0].Role != models.RoleSystem {
		t.Fatal("error should append a system notice")
	}

	if len(cmds) == 0 {
		t.Fatal("error should produce a notification command")
	}
	msg := cmds[0]()
	addMsg, ok := msg.(app.AddNotificationMsg)
	if !ok || addMsg.Type != app.NotificationError {
		t.Error("error should raise an error notification")
	}
}

func TestModel_ClearTranscript(t *testing.T) {
	m := newTestModel()
	m.state.AppendMessage(models.ChatMessage{Role: models.RoleUser, Text: "hi"})
	m.input.Blur()

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.state.MessageCount() != 0 {
		t.Error("ctrl+l should clear the transcript")
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel()

	view := m.View()
	if view == "" {
		t.Fatal("View returned empty string")
	}
	if !strings.Contains(view, "0/20") && !strings.Contains(view, "0/0") {
		// Usage line renders whatever the state holds; a fresh state has 0/0
		t.Logf("view: %q", view)
	}

	m.state.SetUsage(models.UsageSnapshot{Count: 5, Limit: 20}, models.Disconnected)
	view = m.View()
	if !strings.Contains(view, "5/20") {
		t.Error("view should show the usage counter")
	}

	m.state.AppendMessage(models.ChatMessage{Role: models.RoleUser, Text: "hello stylist"})
	m.refreshTranscript()
	view = m.View()
	if !strings.Contains(view, "hello stylist") {
		t.Error("view should show transcript messages")
	}
}

func TestModel_ViewBlocked(t *testing.T) {
	m := newTestModel()
	m.state.SetUsage(models.UsageSnapshot{Count: 20, Limit: 20}, models.Connected)

	view := m.View()
	if !strings.Contains(view, "LIMIT") {
		t.Error("view should show the exhausted bar at the limit")
	}
}

func TestModel_Help(t *testing.T) {
	m := newTestModel()
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
