// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stylist-chat-tui/internal/logger"
	"github.com/j-veylop/stylist-chat-tui/internal/ui/styles"
)

// UsageBar renders the query quota as a progress bar with label and counter.
type UsageBar struct {
	progress progress.Model
}

// NewUsageBar creates a new usage bar with gradient colors.
func NewUsageBar() UsageBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return UsageBar{progress: p}
}

// Init initializes the progress bar model.
func (u UsageBar) Init() tea.Cmd {
	return nil
}

// Update handles progress bar animation messages.
func (u UsageBar) Update(msg tea.Msg) (UsageBar, tea.Cmd) {
	model, cmd := u.progress.Update(msg)
	u.progress = model.(progress.Model)
	return u, cmd
}

// SetWidth sets the progress bar width.
func (u *UsageBar) SetWidth(width int) {
	u.progress.Width = width
}

// View renders the usage bar. The bar fills as queries are consumed; the
// counter and its color track what remains.
func (u UsageBar) View(count, limit, width int) string {
	barWidth := width - 20
	if barWidth < 10 {
		barWidth = 10
	}
	u.progress.Width = barWidth

	usedPercent := 0.0
	remainingPercent := 100.0
	if limit > 0 {
		usedPercent = float64(count) / float64(limit) * 100
		remainingPercent = 100 - usedPercent
	}
	if usedPercent > 100 {
		usedPercent = 100
		remainingPercent = 0
	}

	bar := u.progress.ViewAs(usedPercent / 100)

	counterStyle := styles.GetUsageStyle(remainingPercent, count >= limit)
	counterStr := counterStyle.Width(8).Align(lipgloss.Right).Render(fmt.Sprintf("%d/%d", count, limit))

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", counterStr)
}

// ViewBlocked renders the exhausted state.
func (u UsageBar) ViewBlocked(limit, width int) string {
	barWidth := width - 20
	if barWidth < 10 {
		barWidth = 10
	}

	fullBar := lipgloss.NewStyle().
		Foreground(styles.Error).
		Render(strings.Repeat("█", barWidth))

	statusStr := styles.UsageBlockedStyle.
		Width(14).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%d/%d LIMIT", limit, limit))

	return lipgloss.JoinHorizontal(lipgloss.Center, fullBar, " ", statusStr)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// SimpleUsageBar renders a plain gradient bar with label and counter, without
// a progress model. Used where the caller owns layout.
func SimpleUsageBar(count, limit int, label string, width int) string {
	labelWidth := len(label) + 1
	counterWidth := 8
	barWidth := width - labelWidth - counterWidth - 4

	if barWidth < 5 {
		barWidth = 5
	}

	usedPercent := 0.0
	remainingPercent := 100.0
	if limit > 0 {
		usedPercent = float64(count) / float64(limit) * 100
		remainingPercent = 100 - usedPercent
	}

	bar := RenderGradientBar(usedPercent, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	counterStr := styles.GetUsageStyle(remainingPercent, limit > 0 && count >= limit).
		Width(counterWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%d/%d", count, limit))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, counterStr)
}

// TimeBar visualizes time remaining until the window resets. The bar fills up
// as time runs out.
type TimeBar struct{}

// RenderTimeBarChars renders just the bar characters for a time bar.
func RenderTimeBarChars(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#ffd93d", "#6c5ce7", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// ViewWithLabel renders the countdown bar against the full window length.
func (t TimeBar) ViewWithLabel(remaining, window time.Duration, label string, width int) string {
	percent := 1.0
	if window > 0 {
		percent = 1.0 - (float64(remaining) / float64(window))
		if percent < 0 {
			percent = 0
		}
		if percent > 1 {
			percent = 1
		}
	}

	hours := int(remaining / time.Hour)
	minutes := int(remaining % time.Hour / time.Minute)
	timeStr := fmt.Sprintf("%dh %02dm", hours, minutes)

	labelWidth := len(label)
	timeWidth := 8
	barWidth := width - (labelWidth + 1) - timeWidth - 2

	if barWidth < 10 {
		barWidth = 10
	}

	bar := RenderTimeBarChars(percent, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	timeStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(timeWidth).
		Align(lipgloss.Right)

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, timeStyle.Render(timeStr))
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
