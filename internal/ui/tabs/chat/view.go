package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stylist-chat-tui/internal/models"
	"github.com/j-veylop/stylist-chat-tui/internal/ui/components"
	"github.com/j-veylop/stylist-chat-tui/internal/ui/styles"
)

// View renders the chat tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderUsageLine())
	sections = append(sections, m.transcript.View())

	if m.sending {
		sections = append(sections, m.spinner.ViewWithLabel())
	}

	sections = append(sections, m.renderInput())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

// renderUsageLine renders the quota gauge with countdown and sync marker.
func (m *Model) renderUsageLine() string {
	snap, conn := m.state.GetUsage()

	barWidth := m.width / 2
	if barWidth < 24 {
		barWidth = 24
	}

	var bar string
	if snap.HasReachedLimit() {
		bar = m.usageBar.ViewBlocked(snap.Limit, barWidth)
	} else {
		bar = m.usageBar.View(snap.Count, snap.Limit, barWidth)
	}

	var countdown string
	if m.services != nil {
		svc := m.services.Usage()
		remaining := svc.TimeUntilReset(snap)
		countdown = components.TimeBar{}.ViewWithLabel(remaining, svc.Window(), "resets", 30)
	}

	var sync string
	if conn == models.Connected {
		sync = styles.ConnectedStyle.Render("synced")
	} else {
		sync = styles.DisconnectedStyle.Render("local estimate")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, "  ", countdown, "  ", sync)
}

// renderTranscript renders the full message history.
func (m *Model) renderTranscript() string {
	messages := m.state.GetMessages()
	if len(messages) == 0 {
		return styles.HelpStyle.Render("Start a conversation. Your queries count against the usage window above.")
	}

	wrapWidth := m.transcript.Width - 2
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	bodyStyle := lipgloss.NewStyle().Width(wrapWidth)

	var lines []string
	for _, msg := range messages {
		ts := styles.HelpStyle.Render(msg.Timestamp.Format("15:04"))

		switch msg.Role {
		case models.RoleUser:
			lines = append(lines, fmt.Sprintf("%s %s", styles.UserMessageStyle.Render("You"), ts))
			lines = append(lines, bodyStyle.Render(msg.Text))

		case models.RoleAssistant:
			lines = append(lines, fmt.Sprintf("%s %s", styles.SuccessTextStyle.Render("Stylist"), ts))
			lines = append(lines, styles.AssistantMessageStyle.Render(bodyStyle.Render(msg.Text)))

		case models.RoleSystem:
			lines = append(lines, styles.SystemMessageStyle.Render(bodyStyle.Render(msg.Text)))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// renderInput renders the prompt box with a focus-dependent border.
func (m *Model) renderInput() string {
	border := styles.BlurredBorderStyle
	if m.input.Focused() {
		border = styles.FocusedBorderStyle
	}

	hint := styles.HelpStyle.Render("enter to send, esc to scroll")
	box := border.Width(max(m.width-6, 20)).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, box, hint)
}
