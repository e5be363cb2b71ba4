// Package bridge implements the interpreter bridge: the fixed capability
// surface registered under __ffi.unstable and exposed to the embedded
// scripting engine. The engine itself is an external collaborator, modeled
// here only through the narrow Interpreter interface so this package has no
// dependency on any particular JS runtime.
package bridge

import (
	"context"
	"fmt"

	"github.com/oneclient/core-go/internal/value"
)

// HostFunc is one callable capability exposed to the interpreter.
type HostFunc func(ctx context.Context, args []value.Value) (value.Value, error)

// Interpreter is the narrow surface the bridge needs from the embedded
// scripting engine: register a namespaced capability table, and evaluate a
// map's usecase entrypoint against it.
type Interpreter interface {
	Link(namespace []string, fns map[string]HostFunc) error
	Evaluate(ctx context.Context, source []byte, entrypoint string, args value.Value) (value.Value, error)
}

// TypeError reports an argument arity or type mismatch caught at the bridge
// boundary, before a capability body runs.
type TypeError struct {
	Func string
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("bridge: %s: want %s, got %s", e.Func, e.Want, e.Got)
}

// Namespace is where the capability table is registered, per spec.
var Namespace = []string{"__ffi", "unstable"}

// Link registers the fixed capability table against interp, wiring each
// capability to deps. Re-entrancy (a capability call triggering further
// capability calls via nested message exchanges) is the interpreter's
// concern, not the bridge's: HostFunc bodies hold no lock across a call.
func Link(interp Interpreter, deps Dependencies) error {
	return interp.Link(Namespace, capabilityTable(deps))
}

func capabilityTable(deps Dependencies) map[string]HostFunc {
	return map[string]HostFunc{
		"printDebug":           printDebug(deps),
		"print":                print_(deps),
		"bytes_to_utf8":        bytesToUTF8,
		"utf8_to_bytes":        utf8ToBytes,
		"bytes_to_base64":      bytesToBase64,
		"base64_to_bytes":      base64ToBytes,
		"record_to_urlencoded": recordToURLEncoded,
		"message_exchange":     messageExchange(deps),
		"stream_read":          streamRead(deps),
		"stream_write":         streamWrite(deps),
		"stream_close":         streamClose(deps),
	}
}

func wantArgs(fn string, args []value.Value, n int) error {
	if len(args) != n {
		return &TypeError{Func: fn, Want: fmt.Sprintf("%d argument(s)", n), Got: fmt.Sprintf("%d", len(args))}
	}
	return nil
}

func wantString(fn string, v value.Value) (string, error) {
	s, ok := v.String()
	if !ok {
		return "", &TypeError{Func: fn, Want: "string", Got: v.Kind().String()}
	}
	return s, nil
}

func wantBytes(fn string, v value.Value) ([]byte, error) {
	b, ok := v.Bytes()
	if !ok {
		return nil, &TypeError{Func: fn, Want: "bytes", Got: v.Kind().String()}
	}
	return b, nil
}

func wantNumber(fn string, v value.Value) (float64, error) {
	n, ok := v.Number()
	if !ok {
		return 0, &TypeError{Func: fn, Want: "number", Got: v.Kind().String()}
	}
	return n, nil
}
