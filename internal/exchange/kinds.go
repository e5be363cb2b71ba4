package exchange

import (
	"context"

	"github.com/oneclient/core-go/internal/value"
)

// performInputRequest / PerformInputResult implement the "perform-input"
// kind: the core asks the host for everything needed to run one perform.
type performInputRequest struct {
	Kind string `json:"kind"`
}

// PerformInputResult is the decoded "ok" response to a perform-input
// request.
type PerformInputResult struct {
	ProfileURL string      `json:"profile_url"`
	MapURL     string      `json:"map_url"`
	Usecase    string      `json:"usecase"`
	MapInput   value.Value `json:"map_input"`
	MapVars    value.Value `json:"map_vars"`
	MapSecrets value.Value `json:"map_secrets"`
}

// PerformInput issues a "perform-input" request and returns the decoded
// result, or an error (transport or well-formed "err" response).
func PerformInput(ctx context.Context, ex *Exchange) (PerformInputResult, error) {
	var out PerformInputResult
	err := Call(ctx, ex, "perform-input", performInputRequest{Kind: "perform-input"}, &out)
	return out, err
}

// performOutputRequest implements the "perform-output" kind: the core
// reports the usecase-declared Ok/Err result of a perform back to the host.
// Runtime exceptions (see engine.Exception) are sent this way too, as an Err
// carrying their code and message.
type performOutputRequest struct {
	Kind      string               `json:"kind"`
	MapResult performOutputPayload `json:"map_result"`
}

// performOutputPayload marshals to {"Ok": value} or {"Err": value},
// matching the Rust Result<HostValue, HostValue> tagged-enum wire shape
// exactly (scenario 5 of the testable properties).
type performOutputPayload struct {
	isError bool
	value   value.Value
}

func (p performOutputPayload) MarshalJSON() ([]byte, error) {
	key := "Ok"
	if p.isError {
		key = "Err"
	}
	return value.Marshal(value.NewObjectBuilder().Set(key, p.value).Build())
}

// PerformOutput issues a "perform-output" request for a successful usecase
// result.
func PerformOutput(ctx context.Context, ex *Exchange, result value.Value) error {
	req := performOutputRequest{Kind: "perform-output", MapResult: performOutputPayload{value: result}}
	return Call(ctx, ex, "perform-output", req, nil)
}

// PerformOutputError issues a "perform-output" request for a usecase
// declared error value (distinct from a runtime exception).
func PerformOutputError(ctx context.Context, ex *Exchange, errValue value.Value) error {
	req := performOutputRequest{Kind: "perform-output", MapResult: performOutputPayload{isError: true, value: errValue}}
	return Call(ctx, ex, "perform-output", req, nil)
}

// --- file / provider / map resolution ---

type fileReadRequest struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// FileReadResult is the decoded ok response to a "file-read" request: raw
// bytes of the resource at URL (a provider.json or a map's compiled/source
// body).
type FileReadResult struct {
	Contents value.Value `json:"contents"`
}

func FileRead(ctx context.Context, ex *Exchange, url string) (FileReadResult, error) {
	var out FileReadResult
	err := Call(ctx, ex, "file-read", fileReadRequest{Kind: "file-read", URL: url}, &out)
	return out, err
}

// --- HTTP fetch ---

// HTTPFetchRequest is the request payload forwarded by the interpreter
// bridge's message_exchange capability whenever a map issues an HTTP call.
type HTTPFetchRequest struct {
	Kind    string              `json:"kind"`
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers"`
	Query   map[string][]string `json:"query"`
	Body    value.Value         `json:"body"`
}

// HTTPFetchResult is the decoded ok response to an "http-fetch" request.
type HTTPFetchResult struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers"`
	Body    value.Value         `json:"body"`
}

func HTTPFetch(ctx context.Context, ex *Exchange, req HTTPFetchRequest) (HTTPFetchResult, error) {
	req.Kind = "http-fetch"
	var out HTTPFetchResult
	err := Call(ctx, ex, "http-fetch", req, &out)
	return out, err
}

// --- streams ---

type streamOpRequest struct {
	Kind   string `json:"kind"`
	Handle uint32 `json:"handle"`
	Len    int    `json:"len,omitempty"`
	Data   []byte `json:"data,omitempty"`
}

// StreamReadResult is the decoded ok response to "stream-read".
type StreamReadResult struct {
	Data []byte `json:"data"`
}

func StreamRead(ctx context.Context, ex *Exchange, handle uint32, maxLen int) (StreamReadResult, error) {
	var out StreamReadResult
	err := Call(ctx, ex, "stream-read", streamOpRequest{Kind: "stream-read", Handle: handle, Len: maxLen}, &out)
	return out, err
}

// StreamWriteResult is the decoded ok response to "stream-write".
type StreamWriteResult struct {
	Count int `json:"count"`
}

func StreamWrite(ctx context.Context, ex *Exchange, handle uint32, data []byte) (StreamWriteResult, error) {
	var out StreamWriteResult
	err := Call(ctx, ex, "stream-write", streamOpRequest{Kind: "stream-write", Handle: handle, Data: data}, &out)
	return out, err
}

func StreamClose(ctx context.Context, ex *Exchange, handle uint32) error {
	return Call(ctx, ex, "stream-close", streamOpRequest{Kind: "stream-close", Handle: handle}, nil)
}

// --- metrics ---

// MetricsSendRequest forwards a drained batch of event-buffer entries to the
// host. Fields are intentionally loose (map[string]any) since events carry
// arbitrary structured logrus fields.
type MetricsSendRequest struct {
	Kind   string           `json:"kind"`
	Events []map[string]any `json:"events"`
}

func SendMetrics(ctx context.Context, ex *Exchange, events []map[string]any) error {
	return Call(ctx, ex, "metrics-send", MetricsSendRequest{Kind: "metrics-send", Events: events}, nil)
}
