package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/slok/deployboard/internal/model"
)

var (
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
	colorMuted   = lipgloss.Color("#565f89")
	colorBgLight = lipgloss.Color("#24283b")
	colorFg      = lipgloss.Color("#c0caf5")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(colorBgLight).
			Foreground(colorFg).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().Foreground(colorMuted)
	runningStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	failedStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	abortedStyle = lipgloss.NewStyle().Foreground(colorWarning)
)

// statusIndicator returns a styled status string for tasks and stages.
func statusIndicator(status string) string {
	switch status {
	case string(model.TaskStatusPending):
		return pendingStyle.Render("○ pending")
	case string(model.TaskStatusRunning):
		return runningStyle.Render("● running")
	case string(model.TaskStatusDone):
		return doneStyle.Render("✓ done")
	case string(model.TaskStatusFailed):
		return failedStyle.Render("✗ failed")
	case string(model.TaskStatusAborted):
		return abortedStyle.Render("■ aborted")
	default:
		return pendingStyle.Render("? " + status)
	}
}

func levelStyle(l model.Level) lipgloss.Style {
	switch l {
	case model.LevelError:
		return failedStyle
	case model.LevelWarning:
		return abortedStyle
	default:
		return labelStyle
	}
}
