package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maruel/boarddb/internal/clock"
	"github.com/maruel/boarddb/internal/kv"
)

// DefaultDebounce is the window payload changes are coalesced over.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces writes to a single key.
//
// Every Schedule restarts the window and replaces the pending value; when
// the window elapses without a new Schedule, the latest value is written
// once. Writes are serialized: at most one is in flight and one pending.
// Write errors are logged and dropped.
type Debouncer struct {
	store  kv.Store
	key    string
	window time.Duration
	clock  clock.Clock

	// writeMu is held for the duration of a store write; it is always
	// acquired before mu.
	writeMu sync.Mutex

	mu         sync.Mutex
	pending    string
	hasPending bool
	timer      clock.Timer
	gen        uint64
	closed     bool
}

// NewDebouncer returns a Debouncer writing key to store.
func NewDebouncer(store kv.Store, key string, window time.Duration, clk clock.Clock) *Debouncer {
	if clk == nil {
		clk = clock.Real()
	}
	return &Debouncer{store: store, key: key, window: window, clock: clk}
}

// Schedule replaces the pending value and restarts the window. It is
// ignored once the Debouncer is closed.
func (d *Debouncer) Schedule(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		slog.Debug("dropping write to closed debouncer", "key", d.key)
		return
	}
	d.pending = value
	d.hasPending = true
	d.stopLocked()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

// Pending returns the value waiting to be written, if any.
func (d *Debouncer) Pending() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.hasPending
}

// Flush writes the pending value now, if any, and returns once it is
// written.
func (d *Debouncer) Flush(ctx context.Context) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if value, ok := d.take(0, false); ok {
		d.write(ctx, value)
	}
}

// Cancel drops the pending value without writing it. It waits for an
// in-flight write to complete.
func (d *Debouncer) Cancel() {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasPending = false
	d.pending = ""
	d.stopLocked()
}

// Close flushes then cancels. Later calls to Schedule are ignored.
func (d *Debouncer) Close(ctx context.Context) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	value, ok := d.take(0, false)
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	if ok {
		d.write(ctx, value)
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if value, ok := d.take(gen, true); ok {
		d.write(context.Background(), value)
	}
}

// take removes the pending value. When checkGen is set, it only does so if
// no Schedule or Cancel happened since generation gen was armed.
func (d *Debouncer) take(gen uint64, checkGen bool) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if checkGen && gen != d.gen {
		return "", false
	}
	if !d.hasPending {
		return "", false
	}
	value := d.pending
	d.pending = ""
	d.hasPending = false
	d.stopLocked()
	return value, true
}

// stopLocked disarms the timer and invalidates callbacks already queued.
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debouncer) write(ctx context.Context, value string) {
	if err := d.store.Set(ctx, d.key, value); err != nil {
		slog.WarnContext(ctx, "failed to persist", "key", d.key, "err", err)
	}
}
