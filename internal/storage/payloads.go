package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/maruel/boarddb/internal/clock"
	"github.com/maruel/boarddb/internal/kv"
)

// PayloadStore persists the opaque document of each board, one key per
// board, with a Debouncer per board absorbing rapid edits.
type PayloadStore struct {
	store  kv.Store
	keys   Keys
	window time.Duration
	clock  clock.Clock

	// mu is held while scheduling so a writer is never retired between its
	// lookup and the Schedule call.
	mu      sync.Mutex
	writers map[string]*Debouncer
	closed  bool
}

// NewPayloadStore returns a PayloadStore. A non-positive window uses
// DefaultDebounce and a nil clk uses the real clock.
func NewPayloadStore(store kv.Store, keys Keys, window time.Duration, clk clock.Clock) *PayloadStore {
	if window <= 0 {
		window = DefaultDebounce
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &PayloadStore{
		store:   store,
		keys:    keys,
		window:  window,
		clock:   clk,
		writers: map[string]*Debouncer{},
	}
}

// Load returns the payload of boardID. A payload still waiting in the
// debounce window is returned as is.
//
// ok is false when the board has no payload, when the store fails or when
// the stored value is not JSON; the caller starts from an empty document.
func (p *PayloadStore) Load(ctx context.Context, boardID string) (payload string, ok bool) {
	if w := p.writer(boardID); w != nil {
		if v, pending := w.Pending(); pending {
			return v, true
		}
	}
	key := p.keys.Board(boardID)
	v, found, err := p.store.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "failed to load payload", "key", key, "err", err)
		return "", false
	}
	if !found {
		return "", false
	}
	if !json.Valid([]byte(v)) {
		slog.WarnContext(ctx, "ignoring malformed payload", "key", key, "size", len(v))
		return "", false
	}
	return v, true
}

// Notify records a new payload for boardID. It is written once the board
// has been quiet for the debounce window.
func (p *PayloadStore) Notify(boardID, payload string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		slog.Debug("payload store closed, change not persisted", "board", boardID)
		return
	}
	w := p.writers[boardID]
	if w == nil {
		w = NewDebouncer(p.store, p.keys.Board(boardID), p.window, p.clock)
		p.writers[boardID] = w
	}
	w.Schedule(payload)
}

// Flush writes every pending payload now.
func (p *PayloadStore) Flush(ctx context.Context) {
	for _, w := range p.snapshot() {
		w.Flush(ctx)
	}
}

// Release writes the pending payload of boardID now and stops its timer,
// typically when the board is closed. The writer stays registered so edits
// racing with the release are still written, in order, by the same writer.
func (p *PayloadStore) Release(ctx context.Context, boardID string) {
	if w := p.writer(boardID); w != nil {
		w.Flush(ctx)
	}
}

// Remove deletes the payload of boardID. A pending write is dropped rather
// than flushed so it cannot recreate the payload. Removing an absent
// payload is not an error.
func (p *PayloadStore) Remove(ctx context.Context, boardID string) error {
	p.mu.Lock()
	w := p.writers[boardID]
	delete(p.writers, boardID)
	p.mu.Unlock()
	if w != nil {
		w.Cancel()
	}
	return p.store.Delete(ctx, p.keys.Board(boardID))
}

// Close flushes and discards every writer. Later calls to Notify are
// ignored.
func (p *PayloadStore) Close(ctx context.Context) {
	p.mu.Lock()
	writers := p.writers
	p.writers = map[string]*Debouncer{}
	p.closed = true
	p.mu.Unlock()
	for _, w := range writers {
		w.Close(ctx)
	}
}

func (p *PayloadStore) writer(boardID string) *Debouncer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writers[boardID]
}

func (p *PayloadStore) snapshot() []*Debouncer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Debouncer, 0, len(p.writers))
	for _, w := range p.writers {
		out = append(out, w)
	}
	return out
}
