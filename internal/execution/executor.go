// Package execution turns approved orders into fills, either against a
// simulated book (paper) or the broker API (live). Both executors are
// synchronous: Submit returns the fill or an error, and the caller owns
// retry-or-abandon decisions above the transport level.
package execution

import (
	"context"

	"fxtrader/internal/model"
)

// Executor places orders.
type Executor interface {
	Submit(ctx context.Context, order model.Order) (model.Fill, error)
}

// Quoter supplies the latest quote for a pair. The paper executor
// prices its fills off it.
type Quoter interface {
	Last(pair model.Pair) (model.Tick, bool)
}
