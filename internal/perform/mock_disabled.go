//go:build !coremock

package perform

import (
	"context"

	"github.com/oneclient/core-go/internal/exchange"
)

// tryMock is a no-op in production builds; the developer mock usecases only
// exist under the coremock build tag.
func tryMock(_ context.Context, _ *exchange.Exchange, _ exchange.PerformInputResult) (bool, error) {
	return false, nil
}
