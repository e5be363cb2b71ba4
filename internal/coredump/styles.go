package coredump

import "github.com/charmbracelet/lipgloss"

var (
	colorWarning = lipgloss.Color("#EAB308")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#22C55E")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5C2E7"))
	helpStyle  = lipgloss.NewStyle().Foreground(colorMuted)

	levelDebugStyle = lipgloss.NewStyle().Foreground(colorMuted)
	levelInfoStyle  = lipgloss.NewStyle().Foreground(colorInfo)
	levelWarnStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	levelErrorStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	pausedStyle = lipgloss.NewStyle().Foreground(colorWarning)
	liveStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
)

func levelStyle(level string) lipgloss.Style {
	switch level {
	case "debug":
		return levelDebugStyle
	case "warning", "warn":
		return levelWarnStyle
	case "error", "fatal", "panic":
		return levelErrorStyle
	default:
		return levelInfoStyle
	}
}
