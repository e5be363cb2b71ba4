package core

import (
	"context"
	"testing"

	"github.com/oneclient/core-go/internal/bridge/faketest"
	"github.com/oneclient/core-go/internal/events"
	"github.com/oneclient/core-go/internal/exchange"
)

func TestSetupBuildsRuntimeAndTeardownReleasesEngine(t *testing.T) {
	tr := exchange.TransportFunc(func(_ context.Context, _ []byte) ([]byte, error) {
		return []byte(`{"kind":"err","error":"no perform-input in this test"}`), nil
	})
	hostEx := exchange.New(tr)
	interp := &faketest.Interpreter{}

	rt := Setup(hostEx, interp)
	defer Teardown()

	if rt.HostExchange == nil || rt.Interpreter == nil || rt.Registry == nil {
		t.Fatalf("incomplete runtime: %+v", rt)
	}
}

func TestSendMetricsDrainsBufferWithoutPanickingOnTransportError(t *testing.T) {
	events.Metrics.Append(events.Event{Level: "info", Message: "test event"})

	tr := exchange.TransportFunc(func(_ context.Context, _ []byte) ([]byte, error) {
		return nil, context.DeadlineExceeded
	})
	hostEx := exchange.New(tr)
	rt := &Runtime{HostExchange: hostEx}

	rt.SendMetrics(context.Background())

	// Once obslog.Setup has hooked Metrics onto the logger, the transport
	// error's own warning lands in the freshly drained buffer.
	for _, e := range events.Metrics.LockAndDrain() {
		if e.Message != "core: send_metrics transport error" {
			t.Fatalf("expected metrics buffer drained, found %q", e.Message)
		}
	}
}

func TestSendMetricsNoOpWhenBufferEmpty(t *testing.T) {
	events.Metrics.LockAndDrain()

	called := false
	tr := exchange.TransportFunc(func(_ context.Context, _ []byte) ([]byte, error) {
		called = true
		return []byte(`{"kind":"ok"}`), nil
	})
	rt := &Runtime{HostExchange: exchange.New(tr)}
	rt.SendMetrics(context.Background())

	if called {
		t.Fatal("expected no transport call when the metrics buffer is empty")
	}
}
