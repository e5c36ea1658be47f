// Package events records trade and engine lifecycle events to pluggable
// sinks: structured logs, a Redis stream for downstream consumers, and
// an optional webhook. Recording is best-effort; a failing sink never
// blocks the trading path.
package events

import (
	"context"
	"encoding/json"
	"time"

	"fxtrader/internal/model"
)

// Type classifies an event.
type Type string

const (
	TypeSignal    Type = "signal"
	TypeTrade     Type = "trade"
	TypeRisk      Type = "risk"
	TypeLifecycle Type = "lifecycle"
)

// Event is one record in the audit trail.
type Event struct {
	Type    Type       `json:"type"`
	TS      time.Time  `json:"ts"`
	Pair    model.Pair `json:"pair,omitempty"`
	Message string     `json:"message"`

	// Type-specific payloads; exactly one is set.
	Signal *model.Signal `json:"signal,omitempty"`
	Fill   *model.Fill   `json:"fill,omitempty"`
	PnL    string        `json:"pnl,omitempty"` // decimal string, set with Fill
}

// JSON returns the encoded event, ignoring errors for hot-path use.
func (e Event) JSON() []byte {
	out, _ := json.Marshal(e)
	return out
}

// Recorder persists events to one sink.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Multi fans an event out to every configured sink.
type Multi []Recorder

// Record sends the event to each sink in order.
func (m Multi) Record(ctx context.Context, ev Event) {
	for _, r := range m {
		r.Record(ctx, ev)
	}
}
