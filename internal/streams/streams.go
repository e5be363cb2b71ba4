// Package streams implements the stream registry: stream_read, stream_write
// and stream_close. The core keeps no registry state of its own — the
// handle, minted and owned by the host, is the whole state — so every
// operation is a pure forward across the message exchange.
package streams

import (
	"context"
	"fmt"

	"github.com/oneclient/core-go/internal/exchange"
)

// Registry forwards stream operations through an Exchange. It holds no
// per-handle bookkeeping; constructing one is just binding a transport.
type Registry struct {
	ex *exchange.Exchange
}

func New(ex *exchange.Exchange) *Registry {
	return &Registry{ex: ex}
}

// Error wraps a stream operation failure as a typed runtime error, surfaced
// across the interpreter bridge rather than silently truncating the call.
type Error struct {
	Op     string
	Handle uint32
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("streams: %s(handle=%d): %v", e.Op, e.Handle, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Read requests up to maxLen bytes from handle and returns what the host
// provided.
func (r *Registry) Read(ctx context.Context, handle uint32, maxLen int) ([]byte, error) {
	res, err := exchange.StreamRead(ctx, r.ex, handle, maxLen)
	if err != nil {
		return nil, &Error{Op: "read", Handle: handle, Err: err}
	}
	return res.Data, nil
}

// Write sends buf to handle and returns the number of bytes the host
// accepted.
func (r *Registry) Write(ctx context.Context, handle uint32, buf []byte) (int, error) {
	res, err := exchange.StreamWrite(ctx, r.ex, handle, buf)
	if err != nil {
		return 0, &Error{Op: "write", Handle: handle, Err: err}
	}
	return res.Count, nil
}

// Close releases handle on the host side.
func (r *Registry) Close(ctx context.Context, handle uint32) error {
	if err := exchange.StreamClose(ctx, r.ex, handle); err != nil {
		return &Error{Op: "close", Handle: handle, Err: err}
	}
	return nil
}
