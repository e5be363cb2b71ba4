package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oneclient/core-go/internal/exchange"
)

func countingTransport(body string) (*exchange.Exchange, *int32) {
	var calls int32
	tr := exchange.TransportFunc(func(_ context.Context, _ []byte) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(body), nil
	})
	return exchange.New(tr), &calls
}

func TestResolveCachesWithinTTL(t *testing.T) {
	ex, calls := countingTransport(`{"kind":"ok","contents":{"$bytes":"aGVsbG8="}}`)
	reg := New(ex, time.Minute)

	for i := 0; i < 3; i++ {
		out, err := reg.Resolve(context.Background(), "https://example.com/provider.json")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if string(out) != "hello" {
			t.Fatalf("got %q", out)
		}
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected 1 host round trip, got %d", got)
	}
}

func TestResolveBypassesCacheWhenTTLNonPositive(t *testing.T) {
	ex, calls := countingTransport(`{"kind":"ok","contents":{"$bytes":"aGVsbG8="}}`)
	reg := New(ex, 0)

	reg.Resolve(context.Background(), "https://example.com/provider.json")
	reg.Resolve(context.Background(), "https://example.com/provider.json")

	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected 2 host round trips with caching disabled, got %d", got)
	}
}

func TestResolveCoalescesConcurrentLookups(t *testing.T) {
	ex, calls := countingTransport(`{"kind":"ok","contents":{"$bytes":"aGVsbG8="}}`)
	reg := New(ex, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Resolve(context.Background(), "https://example.com/shared.json")
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected coalesced single round trip, got %d", got)
	}
}

func TestResolveRefetchesAfterExpiry(t *testing.T) {
	ex, calls := countingTransport(`{"kind":"ok","contents":{"$bytes":"aGVsbG8="}}`)
	reg := New(ex, time.Millisecond)

	reg.Resolve(context.Background(), "https://example.com/provider.json")
	time.Sleep(5 * time.Millisecond)
	reg.Resolve(context.Background(), "https://example.com/provider.json")

	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected refetch after expiry, got %d", got)
	}
}
