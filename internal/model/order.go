package model

import "time"

// OrderKind distinguishes order execution styles.
type OrderKind string

const (
	Market OrderKind = "market"
	Limit  OrderKind = "limit"
	Stop   OrderKind = "stop"
)

// Order is created by the risk manager from an approved signal and
// consumed exactly once by the execution gateway. ID is assigned before
// submission so transient-failure retries reuse the same identifier.
type Order struct {
	ID       string    `json:"id"`
	Pair     Pair      `json:"pair"`
	Side     Direction `json:"side"` // long = buy, short = sell
	Quantity int64     `json:"quantity"`
	Kind     OrderKind `json:"kind"`
	Price    float64   `json:"price,omitempty"` // limit/stop trigger
	Reason   string    `json:"reason"`
	TS       time.Time `json:"ts"`
}

// Fill is the confirmed execution of an order.
type Fill struct {
	OrderID  string    `json:"order_id"`
	Pair     Pair      `json:"pair"`
	Side     Direction `json:"side"`
	Quantity int64     `json:"quantity"`
	Price    float64   `json:"price"`
	Slippage float64   `json:"slippage"` // realized minus expected, in price units
	TS       time.Time `json:"ts"`
}

// RejectedOrder reports an order the gateway could not execute.
type RejectedOrder struct {
	Order  Order  `json:"order"`
	Reason string `json:"reason"`
}
