package perform

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/oneclient/core-go/internal/bridge"
	"github.com/oneclient/core-go/internal/engine"
	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/internal/registry"
	"github.com/oneclient/core-go/internal/security"
	"github.com/oneclient/core-go/internal/streams"
	"github.com/oneclient/core-go/internal/value"
)

// Run executes one perform: the 8-step pipeline from perform-input through
// perform-output. It is the body of the guest's oneclient_core_perform
// export; it takes the engine's exclusive lock itself and runs every step
// after the first under it (see engine.Engine.Acquire).
func Run(ctx context.Context, hostEx *exchange.Exchange, reg *registry.Registry, interp bridge.Interpreter) error {
	// Step 1: acquire engine.
	eng, ok := engine.Current()
	if !ok {
		return sendException(ctx, hostEx, engine.NewException(engine.CodeCoreNotReady, "engine has not been set up"))
	}

	return eng.Acquire(func() error {
		return runLocked(ctx, hostEx, reg, interp)
	})
}

func runLocked(ctx context.Context, hostEx *exchange.Exchange, reg *registry.Registry, interp bridge.Interpreter) error {
	// Step 2: fetch perform-input.
	input, err := exchange.PerformInput(ctx, hostEx)
	if err != nil {
		return sendException(ctx, hostEx, engine.NewException(engine.CodePerformInputError, err.Error()))
	}

	if mocked, mockErr := tryMock(ctx, hostEx, input); mocked {
		return mockErr
	}

	// Step 3: load provider JSON and map source.
	providerRaw, err := reg.Resolve(ctx, input.ProfileURL)
	if err != nil {
		return sendException(ctx, hostEx, engine.NewException(engine.CodePerformInputError, fmt.Sprintf("loading provider: %v", err)))
	}
	mapSource, err := reg.Resolve(ctx, input.MapURL)
	if err != nil {
		return sendException(ctx, hostEx, engine.NewException(engine.CodePerformInputError, fmt.Sprintf("loading map: %v", err)))
	}

	schemes, params, err := ParseProvider(providerRaw)
	if err != nil {
		return sendException(ctx, hostEx, engine.NewException(engine.CodePerformInputError, err.Error()))
	}

	// Step 4: prepare security map.
	secMap, err := security.Prepare(schemes, input.MapSecrets)
	if err != nil {
		return sendException(ctx, hostEx, engine.NewException(engine.CodePrepareSecurityMapError, err.Error()))
	}
	resolvedSecrets := deriveResolvedSecrets(schemes, input.MapSecrets)

	// Step 5: derive provider parameters, caller-provided map_vars win.
	mergedVars := mergeParams(params, input.MapVars)

	// Step 6: drive the interpreter.
	handler := &requestHandler{host: hostEx, secMap: secMap, secrets: resolvedSecrets}
	deps := bridge.Dependencies{
		Streams: streams.New(hostEx),
		Handler: handler,
		Logger:  log.StandardLogger(),
	}
	if err := bridge.Link(interp, deps); err != nil {
		return sendException(ctx, hostEx, engine.NewException(engine.CodeMapInterpretationError, err.Error()))
	}

	evalArgs := value.NewObjectBuilder().
		Set("input", input.MapInput).
		Set("vars", mergedVars).
		Build()

	result, err := interp.Evaluate(ctx, mapSource, input.Usecase, evalArgs)
	if err != nil {
		return sendException(ctx, hostEx, engine.NewException(engine.CodeMapInterpretationError, err.Error()))
	}

	// Step 7+8: classify and emit. The map's return shape is
	// {"Ok": value} | {"Err": value}; anything else is a map interpretation
	// error.
	return classifyAndEmit(ctx, hostEx, result)
}

func classifyAndEmit(ctx context.Context, hostEx *exchange.Exchange, result value.Value) error {
	if ok, present := result.Get("Ok"); present {
		return logSendError(exchange.PerformOutput(ctx, hostEx, ok))
	}
	if errVal, present := result.Get("Err"); present {
		return logSendError(exchange.PerformOutputError(ctx, hostEx, errVal))
	}
	return sendException(ctx, hostEx, engine.NewException(engine.CodeMapInterpretationError, "map did not return Ok or Err"))
}

func sendException(ctx context.Context, hostEx *exchange.Exchange, exc *engine.Exception) error {
	excValue := value.NewObjectBuilder().
		Set("code", value.String(string(exc.Code))).
		Set("message", value.String(exc.Message)).
		Build()
	return logSendError(exchange.PerformOutputError(ctx, hostEx, excValue))
}

// logSendError implements step 8's "transport failure is logged; there is
// no retry" rule: perform-output delivery failures never propagate as a
// pipeline error.
func logSendError(err error) error {
	if err != nil {
		log.WithError(err).Warn("perform: failed to deliver perform-output")
	}
	return nil
}

func mergeParams(params []rawParam, callerVars value.Value) value.Value {
	b := value.NewObjectBuilder()
	for _, p := range params {
		if p.Default != nil {
			b.Set(p.Name, value.String(*p.Default))
		}
	}
	for _, key := range value.Keys(callerVars) {
		v, _ := callerVars.Get(key)
		b.Set(key, v)
	}
	return b.Build()
}

func deriveResolvedSecrets(schemes []security.Scheme, secrets value.Value) map[string]security.ResolvedSecret {
	out := make(map[string]security.ResolvedSecret, len(schemes))
	for _, scheme := range schemes {
		secretVal, ok := secrets.Get(scheme.ID)
		if !ok {
			continue
		}
		var rs security.ResolvedSecret
		if v, ok := secretVal.Get("username"); ok {
			rs.Username, _ = v.String()
		}
		if v, ok := secretVal.Get("password"); ok {
			rs.Password, _ = v.String()
		}
		if v, ok := secretVal.Get("token"); ok {
			rs.Token, _ = v.String()
		}
		if v, ok := secretVal.Get("apikey"); ok {
			rs.ApiKey, _ = v.String()
		}
		out[scheme.ID] = rs
	}
	return out
}
