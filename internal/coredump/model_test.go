package coredump

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMatchesFilter(t *testing.T) {
	cases := []struct {
		level, filter string
		want          bool
	}{
		{"debug", "", true},
		{"debug", "warn", false},
		{"warning", "warn", true},
		{"error", "warn", true},
		{"error", "error", true},
		{"warning", "error", false},
	}
	for _, c := range cases {
		if got := matchesFilter(c.level, c.filter); got != c.want {
			t.Errorf("matchesFilter(%q, %q) = %v, want %v", c.level, c.filter, got, c.want)
		}
	}
}

func TestModelAccumulatesPolledEvents(t *testing.T) {
	m := NewModel("http://example.invalid", time.Second)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	updated, _ = m.Update(pollResultMsg{events: []Event{
		{Level: "info", Message: "perform started"},
		{Level: "error", Message: "transport failed"},
	}})
	m = updated.(Model)

	if len(m.Snapshot()) != 2 {
		t.Fatalf("expected 2 events in snapshot, got %d", len(m.Snapshot()))
	}
	if len(m.lines) != 2 {
		t.Fatalf("expected 2 rendered lines, got %d", len(m.lines))
	}
}

func TestModelSpaceKeyTogglesPause(t *testing.T) {
	m := NewModel("http://example.invalid", time.Second)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = updated.(Model)
	if !m.paused {
		t.Fatal("expected paused to be true after space key")
	}
}
