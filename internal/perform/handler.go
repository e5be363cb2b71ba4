package perform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/internal/security"
	"github.com/oneclient/core-go/internal/value"
)

// messageKind is used only to read the "kind" discriminator before deciding
// how to route a message_exchange request.
type messageKind struct {
	Kind string `json:"kind"`
}

// requestHandler implements bridge.MessageHandler for one perform call. It
// intercepts "http-fetch" to apply the perform's resolved security map to
// the outgoing request before forwarding to the host; every other kind
// passes straight through.
type requestHandler struct {
	host    *exchange.Exchange
	secMap  *security.Map
	secrets map[string]security.ResolvedSecret
}

func (h *requestHandler) Handle(ctx context.Context, req []byte) ([]byte, error) {
	var head messageKind
	if err := json.Unmarshal(req, &head); err != nil {
		return nil, fmt.Errorf("perform: malformed message_exchange request: %w", err)
	}

	if head.Kind != "http-fetch" {
		return h.host.Raw(ctx, req)
	}

	var httpReq security.HttpRequest
	if err := json.Unmarshal(req, &httpReq); err != nil {
		return nil, fmt.Errorf("perform: malformed http-fetch request: %w", err)
	}

	if h.secMap != nil && httpReq.Security != "" {
		secret := h.secrets[httpReq.Security]
		if err := security.Resolve(h.secMap, secret, &httpReq); err != nil {
			return encodeErrResponse(err), nil
		}
	}

	body := value.None()
	if len(httpReq.Body) > 0 {
		body = value.Bytes(httpReq.Body)
	}
	res, err := exchange.HTTPFetch(ctx, h.host, exchange.HTTPFetchRequest{
		Method:  httpReq.Method,
		URL:     httpReq.URL,
		Headers: multimapToWire(httpReq.Headers),
		Query:   multimapToWire(httpReq.Query),
		Body:    body,
	})
	if err != nil {
		return encodeErrResponse(err), nil
	}
	return json.Marshal(struct {
		Kind string `json:"kind"`
		exchange.HTTPFetchResult
	}{Kind: "ok", HTTPFetchResult: res})
}

func multimapToWire(m security.Multimap) map[string][]string {
	out := make(map[string][]string, len(m.Entries()))
	for _, e := range m.Entries() {
		out[e.Key] = e.Values
	}
	return out
}

func encodeErrResponse(err error) []byte {
	enc, marshalErr := json.Marshal(struct {
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}{Kind: "err", Error: err.Error()})
	if marshalErr != nil {
		return []byte(`{"kind":"err","error":"internal error encoding failure"}`)
	}
	return enc
}
