// Package engine owns the process-wide engine singleton: the single owned
// cell the host addresses by fixed export names, guarded by a poisonable
// exclusive lock. There is deliberately no ambient static access path beyond
// Setup/Current/Teardown — every export wrapper in cmd/guest goes through
// these.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/oneclient/core-go/internal/events"
)

// Engine is the single owned cell addressed by the guest's exported
// entrypoints. The host invokes at most one top-level export at a time by
// contract; mu exists to catch violations of that contract, not to enable
// parallelism.
type Engine struct {
	Config CoreConfiguration

	mu       sync.Mutex
	poisoned atomic.Bool
}

var (
	globalMu sync.Mutex
	global   *Engine
)

// Setup initializes the global engine from environment configuration. It
// must be the first call in the export sequence; calling it twice is a
// contract violation and, per the lifecycle rules, fatal.
func Setup() *Engine {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		panic("engine: setup called twice")
	}

	e := &Engine{Config: LoadConfigFromEnv()}
	global = e
	return e
}

// Current returns the global engine, or (nil, false) if setup has not run
// (or teardown already has). Callers use this for step 1 of perform: fail
// fast with CodeCoreNotReady rather than dereferencing a nil engine.
func Current() (*Engine, bool) {
	globalMu.Lock()
	defer globalMu.Unlock()
	return global, global != nil
}

// Teardown releases the global engine. If the engine's lock is poisoned
// (the previous perform panicked), the developer-dump buffer is printed to
// the diagnostic stream instead of erroring the host. Calling teardown when
// never set up, or twice, is fatal.
func Teardown() {
	globalMu.Lock()
	e := global
	global = nil
	globalMu.Unlock()

	if e == nil {
		panic("engine: teardown called without a prior setup")
	}

	if e.poisoned.Load() {
		dumpDeveloperBuffer()
	}
}

func dumpDeveloperBuffer() {
	events.DeveloperDump.LockAndIterate(func(ev events.Event) {
		fmt.Printf("[developer-dump] level=%s msg=%s fields=%v\n", ev.Level, ev.Message, ev.Fields)
	})
}

// Acquire runs fn while holding the engine's exclusive lock, matching the
// "serialized, holds an exclusive lock on the engine for the full call"
// contract of perform. A panic inside fn poisons the engine (detected by a
// later Teardown) and is converted to a MapInterpretationError exception
// rather than propagating — panics anywhere outside Acquire remain fatal.
func (e *Engine) Acquire(fn func() error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.poisoned.Load() {
		return NewException(CodeCoreNotReady, "engine lock poisoned by a previous panic")
	}

	defer func() {
		if r := recover(); r != nil {
			e.poisoned.Store(true)
			log.WithField("panic", r).Error("engine: perform panicked, engine poisoned")
			err = NewException(CodeMapInterpretationError, fmt.Sprintf("panic during perform: %v", r))
		}
	}()

	return fn()
}
