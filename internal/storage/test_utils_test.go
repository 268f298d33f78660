package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maruel/boarddb/internal/clock"
	"github.com/maruel/boarddb/internal/kv"
)

var errBackendDown = errors.New("backend down")

// recordingStore records every Set on top of a memory store.
type recordingStore struct {
	*kv.Memory

	mu   sync.Mutex
	sets []write
}

type write struct {
	key, value string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Memory: kv.NewMemory()}
}

func (r *recordingStore) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.sets = append(r.sets, write{key, value})
	r.mu.Unlock()
	return r.Memory.Set(ctx, key, value)
}

// writes returns the values written to key, in order.
func (r *recordingStore) writes(key string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, w := range r.sets {
		if w.key == key {
			out = append(out, w.value)
		}
	}
	return out
}

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errBackendDown
}
func (failingStore) Set(context.Context, string, string) error { return errBackendDown }
func (failingStore) Delete(context.Context, string) error      { return errBackendDown }
func (failingStore) Close() error                              { return nil }

func newFakeClock() *clock.Fake {
	return clock.NewFake(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
}

func mustGet(t *testing.T, s kv.Store, key string) string {
	t.Helper()
	v, ok, err := s.Get(t.Context(), key)
	if err != nil || !ok {
		t.Fatalf("Get(%q) = %v, %v", key, ok, err)
	}
	return v
}
