// Package exchange implements the synchronous, JSON-tagged request/response
// channel used both core-to-host and map-to-core. Each request is a JSON
// object carrying a "kind" discriminator; each response carries its own
// "kind" (typically "ok" or "err"). The transport itself is opaque: a
// byte-slice in, byte-slice out function that must not interleave requests
// on a single channel.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport is the opaque synchronous channel a message exchange is built
// on. One call to Send produces exactly one response; framing is the
// transport's responsibility, not the exchange's.
type Transport interface {
	Send(ctx context.Context, req []byte) ([]byte, error)
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, req []byte) ([]byte, error)

func (f TransportFunc) Send(ctx context.Context, req []byte) ([]byte, error) {
	return f(ctx, req)
}

// TransportError wraps a failure to reach the other side of the channel at
// all (as opposed to a well-formed "err" response). Callers surface this as
// an exception kind per spec.
type TransportError struct {
	Kind string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("exchange: transport error for %q: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseError is a well-formed {"kind":"err", "error": "..."} response,
// surfaced as a typed error to the caller rather than a transport failure.
type ResponseError struct {
	Kind    string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("exchange: %s error: %s", e.Kind, e.Message)
}

// Exchange is one instance of the message-exchange protocol bound to a
// single Transport. The runtime holds one, over the host transport; map
// requests reach it through the perform pipeline's message handler.
type Exchange struct {
	transport Transport
}

func New(t Transport) *Exchange {
	return &Exchange{transport: t}
}

// Raw sends a pre-built, already-kind-tagged request straight through the
// transport and returns the raw response bytes. Used by the interpreter
// bridge's message_exchange capability, which lets the map drive arbitrary
// kinds without the bridge itself knowing their shape.
func (ex *Exchange) Raw(ctx context.Context, req []byte) ([]byte, error) {
	resp, err := ex.transport.Send(ctx, req)
	if err != nil {
		return nil, &TransportError{Kind: "raw", Err: err}
	}
	return resp, nil
}

type responseHead struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Call sends request (which must marshal to a JSON object with a "kind"
// field) and decodes the response into okOut when the response kind is
// "ok". okOut may be nil when the success response carries no fields beyond
// "kind" (e.g. perform-output's ok response).
func Call(ctx context.Context, ex *Exchange, kind string, request any, okOut any) error {
	reqBytes, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("exchange: marshal %q request: %w", kind, err)
	}

	respBytes, err := ex.transport.Send(ctx, reqBytes)
	if err != nil {
		return &TransportError{Kind: kind, Err: err}
	}

	var head responseHead
	if err := json.Unmarshal(respBytes, &head); err != nil {
		return &TransportError{Kind: kind, Err: fmt.Errorf("malformed response: %w", err)}
	}

	switch head.Kind {
	case "ok":
		if okOut == nil {
			return nil
		}
		if err := json.Unmarshal(respBytes, okOut); err != nil {
			return &TransportError{Kind: kind, Err: fmt.Errorf("decode ok response: %w", err)}
		}
		return nil
	case "err":
		return &ResponseError{Kind: kind, Message: head.Error}
	default:
		return &TransportError{Kind: kind, Err: fmt.Errorf("unknown response kind %q", head.Kind)}
	}
}
