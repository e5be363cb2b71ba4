// Package core is the public facade over the guest runtime's lifecycle: it
// re-exports the internal engine/perform types external embedders need,
// following the same re-export convention the teacher's sdk packages use to
// expose internal functionality without leaking internal import paths.
package core

import (
	"context"

	"github.com/oneclient/core-go/internal/bridge"
	"github.com/oneclient/core-go/internal/engine"
	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/internal/obslog"
	"github.com/oneclient/core-go/internal/perform"
	"github.com/oneclient/core-go/internal/registry"
)

type Exception = engine.Exception
type Code = engine.Code

const (
	CodeCoreNotReady                 = engine.CodeCoreNotReady
	CodePerformInputError            = engine.CodePerformInputError
	CodePrepareSecurityMapError      = engine.CodePrepareSecurityMapError
	CodeInvalidSecurityConfiguration = engine.CodeInvalidSecurityConfiguration
	CodeMapInterpretationError       = engine.CodeMapInterpretationError
	CodeHostTransportError           = engine.CodeHostTransportError
	CodeInputValidationError         = engine.CodeInputValidationError
)

type Interpreter = bridge.Interpreter

// Runtime binds everything a guest export wrapper needs: the host-facing
// exchange, the interpreter, and the provider/map registry built from the
// engine's own configuration once Setup has run.
type Runtime struct {
	HostExchange *exchange.Exchange
	Interpreter  Interpreter
	Registry     *registry.Registry
}

// Setup initializes observability, then the global engine, then a registry
// sized from the engine's own configuration. It must be the first call in
// the exported lifecycle; calling it twice is fatal (see engine.Setup).
func Setup(hostEx *exchange.Exchange, interp Interpreter) *Runtime {
	obslog.Setup()
	eng := engine.Setup()
	return &Runtime{
		HostExchange: hostEx,
		Interpreter:  interp,
		Registry:     registry.New(hostEx, eng.Config.CacheDuration),
	}
}

// Perform runs one perform through the pipeline. Errors that reach the host
// at all are exceptions encoded as perform-output; Perform itself only
// returns an error (an *Exception) when the engine lock is already poisoned
// or the perform panicked.
func (r *Runtime) Perform(ctx context.Context) error {
	return perform.Run(ctx, r.HostExchange, r.Registry, r.Interpreter)
}

// SendMetrics drains the metrics buffer and forwards it to the host.
// Transport errors are logged, never propagated, per the spec's
// log-only-and-keep-the-TODO design note.
func (r *Runtime) SendMetrics(ctx context.Context) {
	events := drainMetricsAsMaps()
	if len(events) == 0 {
		return
	}
	if err := exchange.SendMetrics(ctx, r.HostExchange, events); err != nil {
		obslogWarn(err)
	}
}

// Teardown releases the global engine, dumping the developer-dump buffer
// instead of erroring the host when the previous perform left the engine
// lock poisoned.
func Teardown() {
	engine.Teardown()
}
