package hostharness

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/oneclient/core-go/internal/events"
	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/internal/value"
)

// Harness dispatches every message-exchange request kind a guest can issue,
// fronted by fixtures and an optional relay for live http-fetch traffic.
type Harness struct {
	Fixtures *Fixtures
	Relay    *Relay
	Metrics  *events.Buffer

	streams *streamTable
}

// NewHarness wires a harness over a fixture table and relay. Metrics always
// starts as a fresh buffer, matching the guest-side convention of a
// dedicated buffer per concern rather than a shared log stream.
func NewHarness(fixtures *Fixtures, relay *Relay) *Harness {
	return &Harness{
		Fixtures: fixtures,
		Relay:    relay,
		Metrics:  &events.Buffer{},
		streams:  newStreamTable(),
	}
}

type requestHead struct {
	Kind string `json:"kind"`
}

// Dispatch decodes req's "kind" and answers it, returning the raw
// kind-tagged response bytes Call expects on the other side.
func (h *Harness) Dispatch(ctx context.Context, req []byte) []byte {
	var head requestHead
	if err := json.Unmarshal(req, &head); err != nil {
		return errResponse(fmt.Sprintf("malformed request: %v", err))
	}

	switch head.Kind {
	case "perform-input":
		return h.handlePerformInput()
	case "perform-output":
		return h.handlePerformOutput(req)
	case "file-read":
		return h.handleFileRead(req)
	case "http-fetch":
		return h.handleHTTPFetch(ctx, req)
	case "stream-read":
		return h.handleStreamRead(req)
	case "stream-write":
		return h.handleStreamWrite(req)
	case "stream-close":
		return h.handleStreamClose(req)
	case "metrics-send":
		return h.handleMetricsSend(req)
	default:
		return errResponse(fmt.Sprintf("unknown request kind %q", head.Kind))
	}
}

func (h *Harness) handlePerformInput() []byte {
	profile, ok := h.Fixtures.file("profile")
	if !ok {
		return errResponse("no \"profile\" entry in fixtures")
	}
	mapSrc, ok := h.Fixtures.file("map")
	if !ok {
		return errResponse("no \"map\" entry in fixtures")
	}
	out := map[string]any{
		"kind":        "ok",
		"profile_url": "profile",
		"map_url":     "map",
		"usecase":     "default",
		"map_input":   map[string]any{},
		"map_vars":    map[string]any{},
		"map_secrets": map[string]any{},
	}
	_ = profile
	_ = mapSrc
	return mustMarshal(out)
}

func (h *Harness) handlePerformOutput(req []byte) []byte {
	var decoded struct {
		MapResult json.RawMessage `json:"map_result"`
	}
	_ = json.Unmarshal(req, &decoded)
	log.WithField("map_result", string(decoded.MapResult)).Info("hostharness: perform-output received")
	return mustMarshal(map[string]any{"kind": "ok"})
}

func (h *Harness) handleFileRead(req []byte) []byte {
	var decoded struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(req, &decoded); err != nil {
		return errResponse(err.Error())
	}
	contents, ok := h.Fixtures.file(decoded.URL)
	if !ok {
		return errResponse(fmt.Sprintf("no fixture file for url %q", decoded.URL))
	}
	return mustMarshal(map[string]any{
		"kind":     "ok",
		"contents": value.String(contents),
	})
}

func (h *Harness) handleHTTPFetch(ctx context.Context, req []byte) []byte {
	var decoded struct {
		Method  string              `json:"method"`
		URL     string              `json:"url"`
		Headers map[string][]string `json:"headers"`
		Query   map[string][]string `json:"query"`
		Body    value.Value         `json:"body"`
	}
	if err := json.Unmarshal(req, &decoded); err != nil {
		return errResponse(err.Error())
	}

	if h.Relay != nil && h.Relay.Connected() {
		result, err := h.Relay.Fetch(ctx, exchange.HTTPFetchRequest{
			Method:  decoded.Method,
			URL:     decoded.URL,
			Headers: decoded.Headers,
			Query:   decoded.Query,
			Body:    decoded.Body,
		})
		if err != nil {
			return errResponse(fmt.Sprintf("relay fetch failed: %v", err))
		}
		return mustMarshal(map[string]any{
			"kind":    "ok",
			"status":  result.Status,
			"headers": result.Headers,
			"body":    result.Body,
		})
	}

	fixture, ok := h.Fixtures.response(decoded.Method, decoded.URL)
	if !ok {
		return errResponse(fmt.Sprintf("no fixture response for %q %q and no relay connected", decoded.Method, decoded.URL))
	}
	return mustMarshal(map[string]any{
		"kind":    "ok",
		"status":  fixture.Status,
		"headers": fixture.Headers,
		"body":    value.String(fixture.Body),
	})
}

func (h *Harness) handleStreamRead(req []byte) []byte {
	var decoded struct {
		Handle uint32 `json:"handle"`
		Len    int    `json:"len"`
	}
	if err := json.Unmarshal(req, &decoded); err != nil {
		return errResponse(err.Error())
	}
	data, err := h.streams.read(decoded.Handle, decoded.Len)
	if err != nil {
		return errResponse(err.Error())
	}
	return mustMarshal(map[string]any{"kind": "ok", "data": data})
}

func (h *Harness) handleStreamWrite(req []byte) []byte {
	var decoded struct {
		Handle uint32 `json:"handle"`
		Data   []byte `json:"data"`
	}
	if err := json.Unmarshal(req, &decoded); err != nil {
		return errResponse(err.Error())
	}
	n, err := h.streams.write(decoded.Handle, decoded.Data)
	if err != nil {
		return errResponse(err.Error())
	}
	return mustMarshal(map[string]any{"kind": "ok", "count": n})
}

func (h *Harness) handleStreamClose(req []byte) []byte {
	var decoded struct {
		Handle uint32 `json:"handle"`
	}
	if err := json.Unmarshal(req, &decoded); err != nil {
		return errResponse(err.Error())
	}
	if err := h.streams.close(decoded.Handle); err != nil {
		return errResponse(err.Error())
	}
	return mustMarshal(map[string]any{"kind": "ok"})
}

func (h *Harness) handleMetricsSend(req []byte) []byte {
	var decoded struct {
		Events []map[string]any `json:"events"`
	}
	if err := json.Unmarshal(req, &decoded); err != nil {
		return errResponse(err.Error())
	}
	for _, e := range decoded.Events {
		level, _ := e["level"].(string)
		msg, _ := e["msg"].(string)
		h.Metrics.Append(events.Event{Level: level, Message: msg, Fields: e})
	}
	return mustMarshal(map[string]any{"kind": "ok"})
}

func errResponse(msg string) []byte {
	return mustMarshal(map[string]any{"kind": "err", "error": msg})
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"kind":"err","error":"hostharness: internal marshal failure"}`)
	}
	return b
}
