// Package marketdata provides the tick sources and shared quote state
// feeding the trading pipeline.
package marketdata

import (
	"sync"

	"fxtrader/internal/model"
)

// QuoteCache holds the most recent tick per pair. The ingest path
// writes it; the paper execution book and dashboards read it.
type QuoteCache struct {
	mu    sync.RWMutex
	ticks map[model.Pair]model.Tick
}

// NewQuoteCache creates an empty quote cache.
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{ticks: make(map[model.Pair]model.Tick)}
}

// Set records the latest tick for its pair.
func (q *QuoteCache) Set(tick model.Tick) {
	q.mu.Lock()
	q.ticks[tick.Pair] = tick
	q.mu.Unlock()
}

// Last returns the most recent tick for pair, if any has been seen.
func (q *QuoteCache) Last(pair model.Pair) (model.Tick, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.ticks[pair]
	return t, ok
}
