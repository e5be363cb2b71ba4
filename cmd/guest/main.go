// Command guest is the WASM guest binary: a GOOS=wasip1 build exporting the
// four lifecycle entrypoints plus the cooperative-stack hook, each a thin
// wrapper delegating to sdk/core. No cgo, no external codegen — just Go's
// native //go:wasmexport directive.
package main

import (
	"context"
	"os"
	"unsafe"

	"github.com/joho/godotenv"

	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/sdk/core"
)

var (
	runtime *core.Runtime
)

//go:wasmexport oneclient_core_setup
func oneclientCoreSetup() {
	_ = godotenv.Load()

	hostEx := exchange.New(hostTransport{})
	interp := newGuestInterpreter()
	runtime = core.Setup(hostEx, interp)
}

//go:wasmexport oneclient_core_perform
func oneclientCorePerform() {
	if runtime == nil {
		return
	}
	_ = runtime.Perform(context.Background())
}

//go:wasmexport oneclient_core_send_metrics
func oneclientCoreSendMetrics() {
	if runtime == nil {
		return
	}
	runtime.SendMetrics(context.Background())
}

//go:wasmexport oneclient_core_teardown
func oneclientCoreTeardown() {
	core.Teardown()
	runtime = nil
}

// asyncifyStack backs asyncify_alloc_stack: a fixed-size region the host can
// use for guest-side cooperative stack switching between message-exchange
// round trips.
var asyncifyStack [64 * 1024]byte

//go:wasmexport asyncify_alloc_stack
func asyncifyAllocStack(dataPtr *uint32, stackSizeBytes uint32) {
	size := uint32(len(asyncifyStack))
	if stackSizeBytes > 0 && stackSizeBytes < size {
		size = stackSizeBytes
	}
	start := uintptr(unsafe.Pointer(&asyncifyStack[0]))
	end := start + uintptr(size)
	*dataPtr = uint32(start)
	*(*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(dataPtr)) + unsafe.Sizeof(*dataPtr))) = uint32(end)
}

func main() {
	// Guest binaries are driven entirely through the exported functions
	// above; main is never invoked by the host but must exist to produce a
	// runnable wasip1 module.
	os.Exit(0)
}
