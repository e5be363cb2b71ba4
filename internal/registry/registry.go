// Package registry fronts provider/map content resolution with a small TTL
// cache keyed by URL, coalescing concurrent lookups for the same URL with
// singleflight. It caches the bytes fetched for a provider.json or a map's
// source, never a compiled map — compilation caching is out of scope.
package registry

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oneclient/core-go/internal/exchange"
)

// Registry resolves a URL to its content, caching results for ttl.
type Registry struct {
	ex  *exchange.Exchange
	ttl time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry

	group singleflight.Group
}

type cacheEntry struct {
	contents []byte
	expires  time.Time
}

// New builds a Registry backed by ex, caching each resolved URL for ttl. A
// non-positive ttl disables caching: every lookup reaches the host.
func New(ex *exchange.Exchange, ttl time.Duration) *Registry {
	return &Registry{ex: ex, ttl: ttl, cache: make(map[string]cacheEntry)}
}

// Resolve returns the content at url, from cache when fresh, otherwise via a
// file-read through the exchange. Concurrent Resolve calls for the same url
// share one in-flight host round trip.
func (r *Registry) Resolve(ctx context.Context, url string) ([]byte, error) {
	if cached, ok := r.lookup(url); ok {
		return cached, nil
	}

	result, err, _ := r.group.Do(url, func() (any, error) {
		if cached, ok := r.lookup(url); ok {
			return cached, nil
		}
		res, err := exchange.FileRead(ctx, r.ex, url)
		if err != nil {
			return nil, err
		}
		contents, ok := res.Contents.Bytes()
		if !ok {
			if s, ok := res.Contents.String(); ok {
				contents = []byte(s)
			}
		}
		r.store(url, contents)
		return contents, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (r *Registry) lookup(url string) ([]byte, bool) {
	if r.ttl <= 0 {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[url]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.contents, true
}

func (r *Registry) store(url string, contents []byte) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[url] = cacheEntry{contents: contents, expires: time.Now().Add(r.ttl)}
}
