package hostharness

import (
	"context"
	"net/http"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/internal/value"
	"github.com/oneclient/core-go/internal/wsrelay"
)

// upstreamProvider is the single well-known relay identity a harness run
// expects: one connected client standing in for the third-party API a map
// is calling, answering http-fetch requests the harness forwards to it.
const upstreamProvider = "upstream"

// Relay adapts wsrelay.Manager — built to proxy model traffic to a
// connected browser tab — into an http-fetch relay: a simulator process
// connects over websocket and answers each forwarded request, letting a
// perform exercise a real request/response round trip end to end without a
// live third-party API.
type Relay struct {
	mgr       *wsrelay.Manager
	connected atomic.Bool
}

// NewRelay builds a relay manager listening for exactly one upstream
// simulator connection on the given path.
func NewRelay(path string) *Relay {
	r := &Relay{}
	r.mgr = wsrelay.NewManager(wsrelay.Options{
		Path:            path,
		ProviderFactory: func(*http.Request) (string, error) { return upstreamProvider, nil },
		OnConnected: func(provider string) {
			r.connected.Store(true)
			log.WithField("provider", provider).Info("hostharness: upstream simulator connected")
		},
		OnDisconnected: func(provider string, cause error) {
			r.connected.Store(false)
			log.WithField("provider", provider).WithError(cause).Warn("hostharness: upstream simulator disconnected")
		},
		LogDebugf: log.Debugf,
		LogInfof:  log.Infof,
		LogWarnf:  log.Warnf,
	})
	return r
}

// Handler exposes the websocket upgrade endpoint for the simulator to dial.
func (r *Relay) Handler() http.Handler {
	return r.mgr.Handler()
}

// Connected reports whether a simulator is presently attached; dispatch
// falls back to static fixtures when it is not.
func (r *Relay) Connected() bool {
	return r.connected.Load()
}

// Fetch forwards one http-fetch request to the connected simulator and
// translates its response back into exchange's wire shape.
func (r *Relay) Fetch(ctx context.Context, req exchange.HTTPFetchRequest) (exchange.HTTPFetchResult, error) {
	headers := make(http.Header, len(req.Headers))
	for k, vs := range req.Headers {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	bodyBytes, _ := req.Body.Bytes()

	resp, err := r.mgr.NonStream(ctx, upstreamProvider, &wsrelay.HTTPRequest{
		Method:  req.Method,
		URL:     req.URL,
		Headers: headers,
		Body:    bodyBytes,
	})
	if err != nil {
		return exchange.HTTPFetchResult{}, err
	}

	out := exchange.HTTPFetchResult{
		Status:  resp.Status,
		Headers: map[string][]string(resp.Headers),
		Body:    value.Bytes(resp.Body),
	}
	return out, nil
}
