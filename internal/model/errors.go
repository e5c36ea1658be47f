package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientHistory is returned by indicators and strategies that
// have not yet seen their minimum window of bars. Callers treat it as
// "no signal", never as a failure.
var ErrInsufficientHistory = errors.New("insufficient history")

// ErrConnectionExhausted is surfaced by the market data gateway when the
// reconnect attempt ceiling is reached. It is fatal to the gateway; the
// caller decides whether to halt or degrade.
var ErrConnectionExhausted = errors.New("connection attempts exhausted")

// ErrTradingHalted is returned while the drawdown ceiling halt is active.
var ErrTradingHalted = errors.New("trading halted: drawdown ceiling reached")

// DataIntegrityError marks an out-of-order or malformed tick/bar. The
// pipeline drops the offending datum and continues.
type DataIntegrityError struct {
	Stage  string
	Pair   Pair
	TS     time.Time
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s %s at %s: %s", e.Stage, e.Pair, e.TS.Format(time.RFC3339), e.Reason)
}

// RiskRejection reports an order not permitted by policy. Logged, never
// retried; the originating signal is discarded.
type RiskRejection struct {
	Pair   Pair
	Reason string
}

func (e *RiskRejection) Error() string {
	return fmt.Sprintf("risk rejected %s: %s", e.Pair, e.Reason)
}

// ExecutionFailure reports a broker rejection or unreachability after
// retries were exhausted. The risk manager treats the position as
// still-open/unresolved and retries on the next bar.
type ExecutionFailure struct {
	OrderID string
	Pair    Pair
	Err     error
}

func (e *ExecutionFailure) Error() string {
	return fmt.Sprintf("execution failed for order %s (%s): %v", e.OrderID, e.Pair, e.Err)
}

func (e *ExecutionFailure) Unwrap() error { return e.Err }
