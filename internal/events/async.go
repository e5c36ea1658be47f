package events

import (
	"context"
	"log/slog"

	"fxtrader/internal/ringbuf"
)

// Async decouples event recording from the bar-processing path. The
// producer pushes into a lock-free ring and never waits on a slow sink;
// a single drain goroutine delivers in order. When the ring fills the
// newest event is dropped and counted.
type Async struct {
	sink   Recorder
	buf    *ringbuf.Ring[Event]
	notify chan struct{}
	log    *slog.Logger
}

// NewAsync wraps sink with a ring of the given capacity.
func NewAsync(sink Recorder, capacity int, log *slog.Logger) *Async {
	return &Async{
		sink:   sink,
		buf:    ringbuf.New[Event](capacity),
		notify: make(chan struct{}, 1),
		log:    log,
	}
}

// Record enqueues the event. Single producer; never blocks.
func (a *Async) Record(_ context.Context, ev Event) {
	if !a.buf.Push(ev) {
		a.log.Warn("event buffer full, dropping", "type", ev.Type, "dropped", a.buf.Overflow())
		return
	}
	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// Run drains the ring into the sink until ctx is cancelled, then
// delivers whatever is still buffered.
func (a *Async) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.drain(context.Background())
			return
		case <-a.notify:
			a.drain(ctx)
		}
	}
}

func (a *Async) drain(ctx context.Context) {
	for {
		ev, ok := a.buf.Pop()
		if !ok {
			return
		}
		a.sink.Record(ctx, ev)
	}
}

// Flush synchronously delivers anything still buffered. Only call
// after Run has returned; the ring allows a single consumer.
func (a *Async) Flush(ctx context.Context) {
	a.drain(ctx)
}
