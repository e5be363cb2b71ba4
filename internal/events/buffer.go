// Package events implements the two event buffers the runtime keeps during a
// perform: an exclusive-lock wrapper around a growable sequence, appended to
// by application code and drained by the host-facing metrics path. Both
// named singletons double as logrus.Hook implementations so ordinary log
// calls populate them without a separate instrumentation call at each site.
package events

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Event is one captured occurrence: a logrus entry's level, message, and
// structured fields, flattened for forwarding across the message exchange.
type Event struct {
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Buffer is an exclusive-lock wrapper around a growable sequence of Events.
// The zero value is ready to use.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

// Append adds event to the buffer.
func (b *Buffer) Append(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

// LockAndDrain removes and returns every buffered event, leaving the buffer
// empty. It is the only way to consume events destructively (send_metrics).
func (b *Buffer) LockAndDrain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	drained := b.events
	b.events = nil
	return drained
}

// LockAndIterate calls fn once per currently-buffered event while holding
// the lock, without removing anything. Used by the panic handler to print
// the developer-dump buffer to the host's diagnostic stream.
func (b *Buffer) LockAndIterate(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		fn(e)
	}
}

// Len reports the number of currently buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Levels implements logrus.Hook: both buffers observe every level, and
// there is no filtering by level or by logger, so each buffer hooked onto
// the same logger receives every entry.
func (b *Buffer) Levels() []log.Level {
	return log.AllLevels
}

// Fire implements logrus.Hook, appending entry as an Event.
func (b *Buffer) Fire(entry *log.Entry) error {
	fields := make(map[string]any, len(entry.Data))
	for k, v := range entry.Data {
		fields[k] = v
	}
	b.Append(Event{
		Level:   entry.Level.String(),
		Message: entry.Message,
		Fields:  fields,
	})
	return nil
}

var (
	// Metrics accumulates events destined for send_metrics: drained and
	// forwarded to the host, never printed locally.
	Metrics = &Buffer{}

	// DeveloperDump accumulates a richer event trail for diagnosing a
	// perform. When teardown finds the engine lock poisoned it is iterated
	// (not drained) and printed to the host's diagnostic stream; nothing
	// drains it.
	DeveloperDump = &Buffer{}
)
