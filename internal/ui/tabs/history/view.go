package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stylist-chat-tui/internal/models"
	"github.com/j-veylop/stylist-chat-tui/internal/ui/components"
	"github.com/j-veylop/stylist-chat-tui/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.loading && m.lastRefresh.IsZero() {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if len(m.records) == 0 {
		return m.renderEmpty()
	}

	var sections []string

	sections = append(sections,
		m.renderHeader(),
		m.renderStats(),
		m.renderAttemptChart(),
		m.renderRecentQueries(),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading query history..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No queries recorded yet."),
		styles.HelpStyle.Render("Attempts will appear here as you chat."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Query History")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] last %dh", chartRanges[m.rangeIdx]))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if !m.lastRefresh.IsZero() {
		subtitle = styles.HelpStyle.Render("Refreshed " + m.lastRefresh.Format("15:04:05"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderStats() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Attempt Totals"), "")

	ok := m.stats[models.QueryStatusOK]
	blocked := m.stats[models.QueryStatusBlocked] + m.stats[models.QueryStatusRateLimited]
	failed := m.stats[models.QueryStatusError]

	rows = append(rows, fmt.Sprintf("  %s  %s  %s",
		styles.SuccessTextStyle.Render(fmt.Sprintf("%d answered", ok)),
		styles.WarningTextStyle.Render(fmt.Sprintf("%d blocked", blocked)),
		styles.ErrorTextStyle.Render(fmt.Sprintf("%d failed", failed)),
	))

	if ok+blocked+failed > 0 {
		chart := components.RenderBarChart(
			[]float64{float64(ok), float64(blocked), float64(failed)},
			[]string{"answered", "blocked", "failed"},
			max(cardWidth-10, 30),
		)
		rows = append(rows, "")
		for _, line := range strings.Split(chart, "\n") {
			rows = append(rows, "  "+line)
		}
	}

	if len(m.hourly) > 0 {
		totals := make([]float64, len(m.hourly))
		for i, h := range m.hourly {
			totals[i] = float64(h.Total)
		}
		spark := components.RenderColoredSparkline(totals, max(cardWidth-20, 20))
		rows = append(rows, "")
		rows = append(rows, "  "+styles.HelpStyle.Render("activity ")+spark)
	}
	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAttemptChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Hourly Attempts"), "")

	if len(m.hourly) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No attempts in this range"))
	} else {
		total := make([]float64, len(m.hourly))
		blocked := make([]float64, len(m.hourly))
		for i, h := range m.hourly {
			total[i] = float64(h.Total)
			blocked[i] = float64(h.Blocked)
		}

		chartWidth := max(cardWidth-12, 30)
		chartHeight := 8

		chart := components.RenderDualLineChart(total, blocked, chartWidth, chartHeight,
			fmt.Sprintf("Last %dh - total (blue) vs blocked (red)", chartRanges[m.rangeIdx]))

		for _, line := range strings.Split(chart, "\n") {
			rows = append(rows, "  "+line)
		}

		rows = append(rows, "")
		legend := components.RenderLegend([]components.LegendItem{
			{Label: "Total", Color: lipgloss.Color("39")},
			{Label: "Blocked", Color: lipgloss.Color("196")},
		})
		rows = append(rows, "  "+legend)
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRecentQueries() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Recent Attempts"), "")

	header := fmt.Sprintf("  %-17s %-12s %8s %9s %8s", "Time", "Status", "Prompt", "Latency", "Usage")
	rows = append(rows, styles.TableHeaderStyle.Render(header))

	for _, rec := range m.records {
		line := fmt.Sprintf("  %-17s %-12s %7dc %7dms %5d/%d",
			rec.Timestamp.Local().Format("Jan 2 15:04:05"),
			rec.Status,
			rec.PromptChars,
			rec.LatencyMs,
			rec.Count,
			rec.Limit,
		)
		rows = append(rows, renderStatusLine(rec.Status, line))
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderStatusLine(status, line string) string {
	switch status {
	case models.QueryStatusOK:
		return styles.TableCellStyle.Render(line)
	case models.QueryStatusBlocked, models.QueryStatusRateLimited:
		return styles.WarningTextStyle.Render(line)
	default:
		return styles.ErrorTextStyle.Render(line)
	}
}
