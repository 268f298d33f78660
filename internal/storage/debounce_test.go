package storage

import (
	"fmt"
	"slices"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	store := newRecordingStore()
	clk := newFakeClock()
	d := NewDebouncer(store, "k", 300*time.Millisecond, clk)

	for i := range 10 {
		d.Schedule(fmt.Sprintf(`{"n":%d}`, i))
		clk.Advance(100 * time.Millisecond)
	}
	if got := store.writes("k"); len(got) != 0 {
		t.Fatalf("writes = %v, want none inside the window", got)
	}
	clk.Advance(200 * time.Millisecond)
	if got, want := store.writes("k"), []string{`{"n":9}`}; !slices.Equal(got, want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	if clk.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clk.Pending())
	}
	clk.Advance(time.Hour)
	if got := store.writes("k"); len(got) != 1 {
		t.Errorf("writes = %v, want exactly one", got)
	}
}

func TestDebouncerFlush(t *testing.T) {
	store := newRecordingStore()
	clk := newFakeClock()
	d := NewDebouncer(store, "k", time.Second, clk)

	d.Flush(t.Context())
	if got := store.writes("k"); len(got) != 0 {
		t.Fatalf("Flush with nothing pending wrote %v", got)
	}
	d.Schedule("a")
	d.Schedule("b")
	d.Flush(t.Context())
	if got, want := store.writes("k"), []string{"b"}; !slices.Equal(got, want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	if _, ok := d.Pending(); ok {
		t.Error("value still pending after Flush")
	}
	// The timer armed by Schedule must not write again.
	clk.Advance(time.Hour)
	if got := store.writes("k"); len(got) != 1 {
		t.Errorf("writes = %v, want exactly one", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	store := newRecordingStore()
	clk := newFakeClock()
	d := NewDebouncer(store, "k", time.Second, clk)
	d.Schedule("a")
	d.Cancel()
	clk.Advance(time.Hour)
	d.Flush(t.Context())
	if got := store.writes("k"); len(got) != 0 {
		t.Errorf("writes = %v, want none", got)
	}
	// A cancelled debouncer is still usable.
	d.Schedule("b")
	clk.Advance(time.Second)
	if got, want := store.writes("k"), []string{"b"}; !slices.Equal(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
}

func TestDebouncerClose(t *testing.T) {
	store := newRecordingStore()
	clk := newFakeClock()
	d := NewDebouncer(store, "k", time.Second, clk)
	d.Schedule("last edit")
	d.Close(t.Context())
	if got, want := store.writes("k"), []string{"last edit"}; !slices.Equal(got, want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	d.Schedule("too late")
	clk.Advance(time.Hour)
	d.Flush(t.Context())
	if got := store.writes("k"); len(got) != 1 {
		t.Errorf("writes = %v, want only the flushed one", got)
	}
}

func TestDebouncerFailingStore(t *testing.T) {
	clk := newFakeClock()
	d := NewDebouncer(failingStore{}, "k", time.Second, clk)
	d.Schedule("a")
	clk.Advance(time.Second)
	d.Schedule("b")
	d.Close(t.Context())
	if _, ok := d.Pending(); ok {
		t.Error("failed write left a value pending")
	}
}

func TestDebouncerRealClock(t *testing.T) {
	store := newRecordingStore()
	d := NewDebouncer(store, "k", 10*time.Millisecond, nil)
	d.Schedule("a")
	d.Schedule("b")
	deadline := time.Now().Add(5 * time.Second)
	for len(store.writes("k")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debounced write never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got, want := store.writes("k"), []string{"b"}; !slices.Equal(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
}
