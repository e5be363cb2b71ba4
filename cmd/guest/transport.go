package main

import (
	"context"
	"unsafe"
)

// hostSendMessage is the host-provided synchronous channel the whole
// message-exchange protocol (4.B) sits on top of: a length-prefixed byte
// buffer in, a length-prefixed byte buffer out. The host is an external
// collaborator; this import is the entire guest-side contract with it.
//
//go:wasmimport oneclient_host message_exchange
func hostSendMessage(reqPtr unsafe.Pointer, reqLen uint32, respPtrOut *unsafe.Pointer, respLenOut *uint32) int32

// hostTransport adapts hostSendMessage to exchange.Transport.
type hostTransport struct{}

func (hostTransport) Send(_ context.Context, req []byte) ([]byte, error) {
	var respPtr unsafe.Pointer
	var respLen uint32

	var reqPtr unsafe.Pointer
	if len(req) > 0 {
		reqPtr = unsafe.Pointer(&req[0])
	}

	if rc := hostSendMessage(reqPtr, uint32(len(req)), &respPtr, &respLen); rc != 0 {
		return nil, &hostTransportError{code: rc}
	}

	if respLen == 0 {
		return []byte{}, nil
	}
	return unsafe.Slice((*byte)(respPtr), respLen), nil
}

type hostTransportError struct {
	code int32
}

func (e *hostTransportError) Error() string {
	return "guest: host message exchange failed"
}
