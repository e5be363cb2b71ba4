package coredump

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the root bubbletea model: a single scrolling viewport over
// polled events, with a status line showing pause/filter state.
type Model struct {
	client   *Client
	interval time.Duration

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	lines      []string
	maxLines   int
	autoScroll bool
	paused     bool
	filter     string
	lastErr    error

	snapshot []Event
}

type pollTickMsg struct{}
type pollResultMsg struct {
	events []Event
	err    error
}

// NewModel builds the inspector model against a running hostharness at
// baseURL, polling every interval.
func NewModel(baseURL string, interval time.Duration) Model {
	return Model{
		client:     NewClient(baseURL),
		interval:   interval,
		maxLines:   5000,
		autoScroll: true,
	}
}

func (m Model) Init() tea.Cmd {
	return m.poll
}

func (m Model) poll() tea.Msg {
	events, err := m.client.Poll()
	return pollResultMsg{events: events, err: err}
}

func (m Model) waitForNextPoll() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		m.viewport.SetContent(m.render())
		return m, nil

	case pollTickMsg:
		if m.paused {
			return m, m.waitForNextPoll()
		}
		return m, m.poll

	case pollResultMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			m.lastErr = nil
			m.snapshot = append(m.snapshot, msg.events...)
			for _, e := range msg.events {
				m.lines = append(m.lines, formatLine(e))
			}
			if len(m.lines) > m.maxLines {
				over := len(m.lines) - m.maxLines
				m.lines = m.lines[over:]
				m.snapshot = m.snapshot[over:]
			}
		}
		m.viewport.SetContent(m.render())
		if m.autoScroll {
			m.viewport.GotoBottom()
		}
		return m, m.waitForNextPoll()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
			return m, nil
		case "c":
			m.lines = nil
			m.snapshot = nil
			m.viewport.SetContent(m.render())
			return m, nil
		case "1":
			m.filter = ""
		case "2":
			m.filter = "warn"
		case "3":
			m.filter = "error"
		}
		m.viewport.SetContent(m.render())
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	status := liveStyle.Render("live")
	if m.paused {
		status = pausedStyle.Render("paused")
	}
	header := titleStyle.Render(fmt.Sprintf(" coredump  %s  lines:%d  filter:%s", status, len(m.lines), filterLabel(m.filter)))
	footer := helpStyle.Render(" q quit · space pause · c clear · 1/2/3 filter all/warn/error")
	if m.lastErr != nil {
		footer = levelErrorStyle.Render(" error: "+m.lastErr.Error()) + "\n" + footer
	}
	return header + "\n" + m.viewport.View() + "\n" + footer
}

func filterLabel(f string) string {
	if f == "" {
		return "all"
	}
	return f
}

func (m Model) render() string {
	var sb strings.Builder
	for i, line := range m.lines {
		if m.filter != "" && !matchesFilter(m.snapshot[i].Level, m.filter) {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func matchesFilter(level, filter string) bool {
	switch filter {
	case "warn":
		return level == "warning" || level == "warn" || level == "error" || level == "fatal" || level == "panic"
	case "error":
		return level == "error" || level == "fatal" || level == "panic"
	default:
		return true
	}
}

func formatLine(e Event) string {
	style := levelStyle(e.Level)
	return style.Render(fmt.Sprintf("[%-5s] %s", e.Level, e.Message))
}

// Snapshot returns the events collected so far (at most the latest maxLines,
// and none from before the last clear), for --save to compress to disk on
// exit.
func (m Model) Snapshot() []Event {
	return m.snapshot
}
