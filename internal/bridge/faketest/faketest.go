// Package faketest provides a recording, non-JS implementation of
// bridge.Interpreter for use in tests: it records every Link/Evaluate call
// and lets callers invoke a registered capability directly, in place of
// driving a real scripting engine.
package faketest

import (
	"context"

	"github.com/oneclient/core-go/internal/bridge"
	"github.com/oneclient/core-go/internal/value"
)

// Interpreter is a test double satisfying bridge.Interpreter.
type Interpreter struct {
	Linked      []LinkCall
	Evaluations []EvaluateCall
	EvalResult  value.Value
	EvalErr     error
}

type LinkCall struct {
	Namespace []string
	Fns       map[string]bridge.HostFunc
}

type EvaluateCall struct {
	Source     []byte
	Entrypoint string
	Args       value.Value
}

func (i *Interpreter) Link(namespace []string, fns map[string]bridge.HostFunc) error {
	i.Linked = append(i.Linked, LinkCall{Namespace: namespace, Fns: fns})
	return nil
}

func (i *Interpreter) Evaluate(_ context.Context, source []byte, entrypoint string, args value.Value) (value.Value, error) {
	i.Evaluations = append(i.Evaluations, EvaluateCall{Source: source, Entrypoint: entrypoint, Args: args})
	return i.EvalResult, i.EvalErr
}

// Call looks up a capability registered in the last Link call by name and
// invokes it, mimicking what the real scripting engine would do when a map
// calls __ffi.unstable.<name>(...).
func (i *Interpreter) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if len(i.Linked) == 0 {
		return value.None(), nil
	}
	fn, ok := i.Linked[len(i.Linked)-1].Fns[name]
	if !ok {
		return value.None(), nil
	}
	return fn(ctx, args)
}
