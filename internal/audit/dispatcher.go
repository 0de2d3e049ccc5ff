package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls how events are buffered between the hashing path and the
// sink.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events instead of slowing the caller down.
	DropIfFull bool
}

// Dispatcher hands events to a sink from a single background goroutine so a
// slow sink never sits inside a hash or verify call.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// mu guards queue against being closed while an Emit is sending on it.
	mu     sync.RWMutex
	queue  chan Event
	closed bool

	worker    sync.WaitGroup
	dropped   atomic.Uint64
	delivered atomic.Uint64
}

// NewDispatcher returns nil when cfg is disabled. Every method is safe on a
// nil Dispatcher.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, max(cfg.BufferSize, 1)),
	}
	d.worker.Go(d.deliver)
	return d
}

// deliver runs until the queue is closed and empty.
func (d *Dispatcher) deliver() {
	ctx := context.Background()
	for event := range d.queue {
		d.sink.Emit(ctx, event)
		d.delivered.Add(1)
	}
}

// Emit queues event. In drop mode a full queue counts the event as dropped;
// otherwise Emit waits for room until ctx is done. Events emitted after Close
// are ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	}
}

// Close flushes queued events to the sink and stops the worker. It blocks
// until the sink has seen every accepted event.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.worker.Wait()
}

// Dropped counts events lost to a full queue.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered counts events handed to the sink.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
