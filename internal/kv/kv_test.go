package kv

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// testStore exercises the behavior every backend shares.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := t.Context()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want absent", ok, err)
	}
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete(missing) failed: %v", err)
	}
	if err := s.Set(ctx, "a", `{"x":1}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "b", ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok, err := s.Get(ctx, "a"); err != nil || !ok || v != `{"x":1}` {
		t.Fatalf("Get(a) = %q, %v, %v", v, ok, err)
	}
	if v, ok, err := s.Get(ctx, "b"); err != nil || !ok || v != "" {
		t.Fatalf("Get(b) = %q, %v, %v; want empty value present", v, ok, err)
	}
	if err := s.Set(ctx, "a", "second"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, _, _ := s.Get(ctx, "a"); v != "second" {
		t.Errorf("Get(a) = %q, want %q", v, "second")
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("Get(a) found a deleted key")
	}
	if v, ok, _ := s.Get(ctx, "b"); !ok || v != "" {
		t.Errorf("Get(b) = %q, %v after deleting a", v, ok)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Set(ctx, "c", "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	s, err := NewFile(filepath.Join(t.TempDir(), "kv.jsonl"))
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	testStore(t, s)
}

func TestFileReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.jsonl")
	ctx := t.Context()
	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	for _, kv := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}, {"a", "4"}} {
		if err := s.Set(ctx, kv[0], kv[1]); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Set(ctx, "d", "5"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	_ = s.Close()

	s2, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	want := map[string]string{"a": "4", "c": "3", "d": "5"}
	for k, v := range want {
		if got, ok, err := s2.Get(ctx, k); err != nil || !ok || got != v {
			t.Errorf("Get(%q) = %q, %v, %v; want %q", k, got, ok, err, v)
		}
	}
	if _, ok, _ := s2.Get(ctx, "b"); ok {
		t.Error("deleted key came back")
	}
}

func TestFileCompactsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.jsonl")
	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	// Simulate an interrupted rewrite: the same key appended twice.
	_ = s.table.Append(Entry{Key: "k", Value: "old"})
	_ = s.table.Append(Entry{Key: "k", Value: "new"})

	s2, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	if v, _, _ := s2.Get(t.Context(), "k"); v != "new" {
		t.Errorf("Get(k) = %q, want %q", v, "new")
	}
	if n := len(s2.table.All()); n != 1 {
		t.Errorf("table has %d rows, want 1", n)
	}
}

func TestSQLite(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "kv.sqlite"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	testStore(t, s)
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.sqlite")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if err := s.Set(t.Context(), "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	defer func() { _ = s2.Close() }()
	if v, ok, err := s2.Get(t.Context(), "k"); err != nil || !ok || v != "v" {
		t.Errorf("Get(k) = %q, %v, %v", v, ok, err)
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedis(t.Context(), "redis://"+mr.Addr(), "test:")
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	if err := s.Set(t.Context(), "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, err := mr.Get("test:k"); err != nil || got != "v" {
		t.Errorf("stored %q, %v under the prefixed key", got, err)
	}
	if err := s.Delete(t.Context(), "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	testStore(t, s)
}

func TestRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedis(t.Context(), "redis://"+addr, ""); err == nil {
		t.Fatal("NewRedis succeeded without a server")
	}
	if _, err := NewRedis(t.Context(), "not a url", ""); err == nil {
		t.Fatal("NewRedis accepted a bad url")
	}
}

func TestRedisServerError(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedis(t.Context(), "redis://"+mr.Addr(), "")
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	defer func() { _ = s.Close() }()
	mr.SetError("ERR injected failure")
	if err := s.Set(t.Context(), "k", "v"); err == nil {
		t.Error("Set succeeded against a failing server")
	}
	if _, _, err := s.Get(t.Context(), "k"); err == nil {
		t.Error("Get succeeded against a failing server")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	mr := miniredis.RunT(t)
	for _, b := range Backends {
		t.Run(string(b), func(t *testing.T) {
			s, err := Open(t.Context(), Config{Backend: b, Dir: dir, RedisURL: "redis://" + mr.Addr(), RedisPrefix: "open:"})
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			testStore(t, s)
		})
	}
	if _, err := Open(t.Context(), Config{Backend: "tape"}); err == nil {
		t.Error("Open accepted an unknown backend")
	}
}

func TestLazy(t *testing.T) {
	testStore(t, NewLazy(func(context.Context) (Store, error) { return NewMemory(), nil }))
}

func TestLazyRetries(t *testing.T) {
	var calls atomic.Int32
	fail := true
	l := NewLazy(func(context.Context) (Store, error) {
		calls.Add(1)
		if fail {
			return nil, errors.New("backend down")
		}
		return NewMemory(), nil
	})
	if err := l.Set(t.Context(), "k", "v"); err == nil {
		t.Fatal("Set succeeded while the backend is down")
	}
	fail = false
	if err := l.Set(t.Context(), "k", "v"); err != nil {
		t.Fatalf("Set failed after recovery: %v", err)
	}
	if _, ok, err := l.Get(t.Context(), "k"); err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("open called %d times, want 2", got)
	}
	_ = l.Close()
	if err := l.Ready(t.Context()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ready after Close = %v, want ErrClosed", err)
	}
}

func TestLazyConcurrentOpen(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	l := NewLazy(func(context.Context) (Store, error) {
		calls.Add(1)
		<-release
		return NewMemory(), nil
	})
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Set(context.Background(), string(rune('a'+i)), "v"); err != nil {
				t.Errorf("Set failed: %v", err)
			}
		}()
	}
	close(release)
	wg.Wait()
	if got := calls.Load(); got != 1 {
		t.Errorf("open called %d times, want 1", got)
	}
}
