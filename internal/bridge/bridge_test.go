package bridge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oneclient/core-go/internal/bridge"
	"github.com/oneclient/core-go/internal/bridge/faketest"
	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/internal/streams"
	"github.com/oneclient/core-go/internal/value"
)

type rawHandlerFunc func(ctx context.Context, req []byte) ([]byte, error)

func (f rawHandlerFunc) Handle(ctx context.Context, req []byte) ([]byte, error) { return f(ctx, req) }

func newTestDeps() bridge.Dependencies {
	tr := exchange.TransportFunc(func(_ context.Context, _ []byte) ([]byte, error) {
		return []byte(`{"kind":"ok"}`), nil
	})
	ex := exchange.New(tr)
	handler := rawHandlerFunc(func(ctx context.Context, req []byte) ([]byte, error) {
		return ex.Raw(ctx, req)
	})
	return bridge.Dependencies{Streams: streams.New(ex), Handler: handler}
}

func TestLinkRegistersFixedCapabilityTable(t *testing.T) {
	interp := &faketest.Interpreter{}
	if err := bridge.Link(interp, newTestDeps()); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(interp.Linked) != 1 {
		t.Fatalf("expected 1 Link call, got %d", len(interp.Linked))
	}
	call := interp.Linked[0]
	if len(call.Namespace) != 2 || call.Namespace[0] != "__ffi" || call.Namespace[1] != "unstable" {
		t.Fatalf("unexpected namespace: %v", call.Namespace)
	}
	for _, name := range []string{
		"printDebug", "print", "bytes_to_utf8", "utf8_to_bytes",
		"bytes_to_base64", "base64_to_bytes", "record_to_urlencoded",
		"message_exchange", "stream_read", "stream_write", "stream_close",
	} {
		if _, ok := call.Fns[name]; !ok {
			t.Fatalf("capability table missing %q", name)
		}
	}
}

func TestBytesUtf8RoundTrip(t *testing.T) {
	interp := &faketest.Interpreter{}
	bridge.Link(interp, newTestDeps())

	cases := []string{"", "hello", "héllo wörld", "日本語"}
	for _, s := range cases {
		bytesVal, err := interp.Call(context.Background(), "utf8_to_bytes", value.String(s))
		if err != nil {
			t.Fatalf("utf8_to_bytes(%q): %v", s, err)
		}
		back, err := interp.Call(context.Background(), "bytes_to_utf8", bytesVal)
		if err != nil {
			t.Fatalf("bytes_to_utf8 round trip: %v", err)
		}
		got, _ := back.String()
		if got != s {
			t.Fatalf("round trip mismatch: got %q, want %q", got, s)
		}
	}
}

func TestBase64RoundTrip(t *testing.T) {
	interp := &faketest.Interpreter{}
	bridge.Link(interp, newTestDeps())

	cases := [][]byte{{}, {0x00}, {0xff, 0xfe, 0x01}, []byte("arbitrary bytes")}
	for _, b := range cases {
		encoded, err := interp.Call(context.Background(), "bytes_to_base64", value.Bytes(b))
		if err != nil {
			t.Fatalf("bytes_to_base64: %v", err)
		}
		decoded, err := interp.Call(context.Background(), "base64_to_bytes", encoded)
		if err != nil {
			t.Fatalf("base64_to_bytes round trip: %v", err)
		}
		got, _ := decoded.Bytes()
		if string(got) != string(b) {
			t.Fatalf("round trip mismatch: got %v, want %v", got, b)
		}
	}
}

func TestBytesToUtf8RejectsInvalidUTF8(t *testing.T) {
	interp := &faketest.Interpreter{}
	bridge.Link(interp, newTestDeps())

	_, err := interp.Call(context.Background(), "bytes_to_utf8", value.Bytes([]byte{0xff, 0xfe}))
	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	var typeErr *bridge.TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func TestRecordToUrlencodedPreservesOrder(t *testing.T) {
	interp := &faketest.Interpreter{}
	bridge.Link(interp, newTestDeps())

	obj := value.NewObjectBuilder().
		Set("b", value.Array([]value.Value{value.String("2"), value.String("3")})).
		Set("a", value.Array([]value.Value{value.String("1")})).
		Build()

	out, err := interp.Call(context.Background(), "record_to_urlencoded", obj)
	if err != nil {
		t.Fatalf("record_to_urlencoded: %v", err)
	}
	got, _ := out.String()
	want := "b=2&b=3&a=1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRecordToUrlencodedRejectsNonStringElements(t *testing.T) {
	interp := &faketest.Interpreter{}
	bridge.Link(interp, newTestDeps())

	obj := value.NewObjectBuilder().
		Set("n", value.Array([]value.Value{value.Number(1)})).
		Build()

	_, err := interp.Call(context.Background(), "record_to_urlencoded", obj)
	if err == nil {
		t.Fatal("expected type error")
	}
}

func TestPrintRequiresExactlyOneStringArg(t *testing.T) {
	interp := &faketest.Interpreter{}
	bridge.Link(interp, newTestDeps())

	_, err := interp.Call(context.Background(), "print")
	if err == nil {
		t.Fatal("expected arity error")
	}
	var typeErr *bridge.TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %T", err)
	}

	_, err = interp.Call(context.Background(), "print", value.Number(1))
	if err == nil {
		t.Fatal("expected type error for non-string arg")
	}
}

func TestStreamCapabilitiesForwardThroughExchange(t *testing.T) {
	var lastReq []byte
	tr := exchange.TransportFunc(func(_ context.Context, req []byte) ([]byte, error) {
		lastReq = req
		return []byte(`{"kind":"ok","data":"aGk="}`), nil
	})
	ex := exchange.New(tr)
	deps := bridge.Dependencies{Streams: streams.New(ex)}

	interp := &faketest.Interpreter{}
	bridge.Link(interp, deps)

	out, err := interp.Call(context.Background(), "stream_read", value.Number(5), value.Number(16))
	if err != nil {
		t.Fatalf("stream_read: %v", err)
	}
	data, ok := out.Bytes()
	if !ok || string(data) != "hi" {
		t.Fatalf("unexpected stream_read result: %v", out)
	}
	if lastReq == nil {
		t.Fatal("expected a request to have been sent")
	}
}
