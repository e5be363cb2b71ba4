//go:build coremock

package perform

import (
	"context"

	"github.com/oneclient/core-go/internal/engine"
	"github.com/oneclient/core-go/internal/exchange"
	"github.com/oneclient/core-go/internal/value"
)

// Mock usecases recognized by the developer mock mode, grounded on the
// original core's mock.rs: deterministic outputs for host testing, gated
// behind this build tag so production builds never carry them.
const (
	usecaseMockPanic    = "CORE_PERFORM_PANIC"
	usecaseMockTrue     = "CORE_PERFORM_TRUE"
	usecaseMockInputErr = "CORE_PERFORM_INPUT_VALIDATION_ERROR"
)

// tryMock intercepts the mock usecases before the real pipeline touches
// provider/map resolution or the interpreter. It returns (true, err) when it
// handled the usecase, (false, nil) otherwise.
func tryMock(ctx context.Context, hostEx *exchange.Exchange, input exchange.PerformInputResult) (bool, error) {
	switch input.Usecase {
	case usecaseMockPanic:
		panic("Requested panic!")
	case usecaseMockTrue:
		return true, logSendError(exchange.PerformOutput(ctx, hostEx, value.Bool(true)))
	case usecaseMockInputErr:
		return true, sendException(ctx, hostEx, engine.NewException(engine.CodeInputValidationError, "Test validation error"))
	default:
		return false, nil
	}
}
