package main

import (
	"context"
	"unsafe"

	"github.com/oneclient/core-go/internal/bridge"
	"github.com/oneclient/core-go/internal/value"
)

// The embedded scripting engine that actually interprets maps is an external
// collaborator (4.F): this binary never embeds one directly, it proxies
// Link/Evaluate across two host imports and keeps the live capability table
// in package-level state so hostInvokeCapability can dispatch back into it.

//go:wasmimport oneclient_host interpreter_link
func hostInterpreterLink(namespacePtr unsafe.Pointer, namespaceLen uint32, namesPtr unsafe.Pointer, namesLen uint32) int32

//go:wasmimport oneclient_host interpreter_evaluate
func hostInterpreterEvaluate(srcPtr unsafe.Pointer, srcLen uint32, entryPtr unsafe.Pointer, entryLen uint32, argsPtr unsafe.Pointer, argsLen uint32, outPtr *unsafe.Pointer, outLen *uint32) int32

// guestInterpreter forwards Link/Evaluate to the host-embedded engine.
// Capability bodies themselves still run guest-side: the host calls back
// into hostInvokeCapability (exported below) for each capability
// invocation during Evaluate.
type guestInterpreter struct{}

func newGuestInterpreter() bridge.Interpreter {
	return guestInterpreter{}
}

var liveCapabilities map[string]bridge.HostFunc

func (guestInterpreter) Link(namespace []string, fns map[string]bridge.HostFunc) error {
	liveCapabilities = fns

	names := make([]byte, 0, 64)
	for name := range fns {
		names = append(names, name...)
		names = append(names, 0)
	}
	ns := joinDotted(namespace)

	var nsPtr, namesPtr unsafe.Pointer
	if len(ns) > 0 {
		nsPtr = unsafe.Pointer(unsafe.StringData(ns))
	}
	if len(names) > 0 {
		namesPtr = unsafe.Pointer(&names[0])
	}

	if rc := hostInterpreterLink(nsPtr, uint32(len(ns)), namesPtr, uint32(len(names))); rc != 0 {
		return &guestInterpreterError{op: "link", code: rc}
	}
	return nil
}

func (guestInterpreter) Evaluate(_ context.Context, source []byte, entrypoint string, args value.Value) (value.Value, error) {
	argsJSON, err := args.MarshalJSON()
	if err != nil {
		return value.Value{}, err
	}

	var srcPtr, entryPtr, argsPtr unsafe.Pointer
	if len(source) > 0 {
		srcPtr = unsafe.Pointer(&source[0])
	}
	if len(entrypoint) > 0 {
		entryPtr = unsafe.Pointer(unsafe.StringData(entrypoint))
	}
	if len(argsJSON) > 0 {
		argsPtr = unsafe.Pointer(&argsJSON[0])
	}

	var outPtr unsafe.Pointer
	var outLen uint32
	rc := hostInterpreterEvaluate(srcPtr, uint32(len(source)), entryPtr, uint32(len(entrypoint)), argsPtr, uint32(len(argsJSON)), &outPtr, &outLen)
	if rc != 0 {
		return value.Value{}, &guestInterpreterError{op: "evaluate", code: rc}
	}

	var out value.Value
	if outLen > 0 {
		if err := out.UnmarshalJSON(unsafe.Slice((*byte)(outPtr), outLen)); err != nil {
			return value.Value{}, err
		}
	}
	return out, nil
}

func joinDotted(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

type guestInterpreterError struct {
	op   string
	code int32
}

func (e *guestInterpreterError) Error() string {
	return "guest: interpreter " + e.op + " failed"
}

// hostInvokeCapability is called back by the host-embedded engine each time
// a linked capability runs. It looks the function up by name in the table
// captured at Link time, decodes the JSON-encoded argument array, and
// returns the JSON-encoded result or error.
//
//go:wasmexport oneclient_invoke_capability
func hostInvokeCapability(namePtr *byte, nameLen uint32, argsPtr *byte, argsLen uint32, outPtr *unsafe.Pointer, outLen *uint32) int32 {
	name := unsafe.String(namePtr, nameLen)
	fn, ok := liveCapabilities[name]
	if !ok {
		return 1
	}

	var argsValue value.Value
	if argsLen > 0 {
		if err := argsValue.UnmarshalJSON(unsafe.Slice(argsPtr, argsLen)); err != nil {
			return 2
		}
	}
	args, _ := argsValue.Array()

	result, err := fn(context.Background(), args)
	if err != nil {
		return 3
	}

	encoded, err := result.MarshalJSON()
	if err != nil {
		return 4
	}
	if len(encoded) == 0 {
		*outLen = 0
		return 0
	}
	*outPtr = unsafe.Pointer(&encoded[0])
	*outLen = uint32(len(encoded))
	return 0
}
