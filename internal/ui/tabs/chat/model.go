// Package chat provides the chat tab for talking to the stylist assistant.
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/stylist-chat-tui/internal/app"
	"github.com/j-veylop/stylist-chat-tui/internal/models"
	"github.com/j-veylop/stylist-chat-tui/internal/services"
	"github.com/j-veylop/stylist-chat-tui/internal/ui/components"
)

const inputHeight = 3

// keyMap defines the key bindings specific to the chat tab.
type keyMap struct {
	Send     key.Binding
	Clear    key.Binding
	Blur     key.Binding
	Focus    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// defaultKeyMap returns the default key bindings for the chat tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send query"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear transcript"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave input"),
		),
		Focus: key.NewBinding(
			key.WithKeys("i", "enter"),
			key.WithHelp("i", "focus input"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

// Model represents the chat tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap

	input      textarea.Model
	transcript viewport.Model
	usageBar   components.UsageBar
	spinner    components.LoadingSpinner

	sending bool
}

// New creates a new chat model.
func New(state *app.State, svc *services.Manager) *Model {
	input := textarea.New()
	input.Placeholder = "Ask the stylist anything..."
	input.CharLimit = 2000
	input.SetHeight(inputHeight)
	input.ShowLineNumbers = false
	input.Focus()

	return &Model{
		state:      state,
		services:   svc,
		keys:       defaultKeyMap(),
		input:      input,
		transcript: viewport.New(0, 0),
		usageBar:   components.NewUsageBar(),
		spinner:    components.NewSpinner("Waiting for the stylist..."),
	}
}

// Init initializes the chat tab.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick())
}

// CapturingInput reports whether the prompt textarea owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.input.Focused()
}

// Update handles messages for the chat tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case app.QueryResultMsg:
		cmds = append(cmds, m.handleQueryResult(msg)...)

	case app.WindowResetMsg:
		m.appendSystemNotice("Usage window reset, quota refreshed.")
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	m.usageBar, cmd = m.usageBar.Update(msg)
	cmds = append(cmds, cmd)

	m.transcript, cmd = m.transcript.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	if m.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.Send):
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, m.keys.Blur):
			m.input.Blur()
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	switch {
	case key.Matches(msg, m.keys.Focus):
		cmds = append(cmds, m.input.Focus())

	case key.Matches(msg, m.keys.Clear):
		m.state.ClearMessages()
		m.transcript.SetContent("")

	default:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit runs the current prompt through the gateway.
func (m *Model) submit() tea.Cmd {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" || m.sending {
		return nil
	}

	m.input.Reset()
	m.sending = true

	m.state.AppendMessage(models.ChatMessage{
		Role:      models.RoleUser,
		Text:      prompt,
		Timestamp: time.Now(),
	})
	m.refreshTranscript()

	commands := app.NewCommands(m.services)
	return commands.SubmitQuery(prompt)
}

func (m *Model) handleQueryResult(msg app.QueryResultMsg) []tea.Cmd {
	var cmds []tea.Cmd
	m.sending = false

	switch {
	case msg.Error != nil:
		m.appendSystemNotice(msg.Error.Error())
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  "Query failed",
				Duration: app.LongNotificationDuration,
			}
		})

	case msg.Result != nil && msg.Result.Blocked:
		m.appendSystemNotice(msg.Result.Message)
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationWarning,
				Message:  "Rate limit reached",
				Duration: app.DefaultNotificationDuration,
			}
		})

	case msg.Result != nil:
		m.state.AppendMessage(models.ChatMessage{
			Role:      models.RoleAssistant,
			Text:      msg.Result.Response,
			Timestamp: time.Now(),
		})
		m.refreshTranscript()
	}

	return cmds
}

func (m *Model) appendSystemNotice(text string) {
	m.state.AppendMessage(models.ChatMessage{
		Role:      models.RoleSystem,
		Text:      text,
		Timestamp: time.Now(),
	})
	m.refreshTranscript()
}

// refreshTranscript rebuilds the viewport content and pins it to the bottom.
func (m *Model) refreshTranscript() {
	m.transcript.SetContent(m.renderTranscript())
	m.transcript.GotoBottom()
}

// SetSize sets the available size for the chat tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	transcriptHeight := height - inputHeight - 6
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}

	m.transcript.Width = width - 4
	m.transcript.Height = transcriptHeight
	m.input.SetWidth(width - 6)
	m.refreshTranscript()
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Send,
		m.keys.Blur,
		m.keys.Clear,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Send, m.keys.Blur, m.keys.Focus},
		{m.keys.Clear, m.keys.PageUp, m.keys.PageDown},
	}
}
