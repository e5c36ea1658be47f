package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"fxtrader/internal/model"
)

// State is the gateway connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateSubscribed   State = "subscribed"
	StateStreaming    State = "streaming"
)

// Config tunes the gateway's reconnect behaviour.
type Config struct {
	Pairs       []model.Pair
	BackoffBase time.Duration
	BackoffMax  time.Duration
	MaxAttempts int // consecutive failed connects before giving up
}

// Gateway drives a Transport through the connection lifecycle:
// disconnected -> connecting -> subscribed -> streaming. On any error
// it reconnects with jittered exponential backoff and resubscribes the
// full pair set; after MaxAttempts consecutive failures it returns
// ErrConnectionExhausted. Duplicate and out-of-order ticks from replays
// after reconnect are suppressed here so downstream state never sees
// them. Tick delivery blocks rather than drops; the bounded channel is
// the backpressure boundary.
type Gateway struct {
	dial Dialer
	cfg  Config
	log  *slog.Logger

	mu              sync.Mutex
	state           State
	lastTS          map[model.Pair]time.Time
	sessionStreamed bool

	// Metrics hooks (optional, set externally).
	OnReconnect   func()
	OnDroppedTick func()
}

// NewGateway creates a gateway over a transport dialer.
func NewGateway(dial Dialer, cfg Config, log *slog.Logger) *Gateway {
	return &Gateway{
		dial:   dial,
		cfg:    cfg,
		log:    log,
		state:  StateDisconnected,
		lastTS: make(map[model.Pair]time.Time),
	}
}

// State returns the current connection state.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gateway) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Run streams ticks into tickCh until ctx is cancelled or the attempt
// ceiling is reached. Returns nil on cancellation.
func (g *Gateway) Run(ctx context.Context, tickCh chan<- model.Tick) error {
	bo := &backoff.Backoff{
		Min:    g.cfg.BackoffBase,
		Max:    g.cfg.BackoffMax,
		Jitter: true,
	}
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			g.setState(StateDisconnected)
			return nil
		default:
		}

		err := g.runOnce(ctx, tickCh)
		g.setState(StateDisconnected)
		if ctx.Err() != nil {
			return nil
		}

		// A session that actually streamed ticks resets the budget;
		// only consecutive dead connects count toward the ceiling.
		if g.streamedLastSession() {
			attempts = 0
			bo.Reset()
		}
		attempts++
		if g.cfg.MaxAttempts > 0 && attempts >= g.cfg.MaxAttempts {
			g.log.Error("reconnect attempts exhausted", "attempts", attempts, "err", err)
			return model.ErrConnectionExhausted
		}

		delay := bo.Duration()
		g.log.Warn("stream disconnected, reconnecting",
			"err", err, "delay", delay, "attempt", attempts)
		if g.OnReconnect != nil {
			g.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (g *Gateway) streamedLastSession() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	streamed := g.sessionStreamed
	g.sessionStreamed = false
	return streamed
}

// runOnce performs one connect/subscribe/read session.
func (g *Gateway) runOnce(ctx context.Context, tickCh chan<- model.Tick) error {
	g.setState(StateConnecting)
	t := g.dial()
	if err := t.Connect(ctx); err != nil {
		return err
	}
	defer t.Close()

	// Cancellation must unblock a pending read.
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessionCtx.Done()
		t.Close()
	}()

	if err := t.Subscribe(ctx, g.cfg.Pairs); err != nil {
		return err
	}
	g.setState(StateSubscribed)
	g.log.Info("subscribed", "pairs", g.cfg.Pairs)

	for {
		tick, err := t.ReadTick()
		if err != nil {
			return err
		}
		if !g.admit(tick) {
			continue
		}

		if g.State() != StateStreaming {
			g.setState(StateStreaming)
		}
		g.mu.Lock()
		g.sessionStreamed = true
		g.mu.Unlock()

		select {
		case tickCh <- tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// admit validates a tick, suppressing malformed quotes and replayed or
// out-of-order timestamps.
func (g *Gateway) admit(tick model.Tick) bool {
	if tick.Pair == "" || tick.Bid <= 0 || tick.Ask <= 0 || tick.Ask < tick.Bid {
		g.log.Warn("dropping malformed tick", "pair", tick.Pair, "bid", tick.Bid, "ask", tick.Ask)
		if g.OnDroppedTick != nil {
			g.OnDroppedTick()
		}
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.lastTS[tick.Pair]; ok && !tick.TS.After(last) {
		if g.OnDroppedTick != nil {
			g.OnDroppedTick()
		}
		return false
	}
	g.lastTS[tick.Pair] = tick.TS
	return true
}
