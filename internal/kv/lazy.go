package kv

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Lazy is a Store that opens its backend on first use.
//
// Calls made while the backend is opening wait for it. Concurrent callers
// share one attempt; a failed attempt is not remembered, so the next call
// tries again.
type Lazy struct {
	open  func(ctx context.Context) (Store, error)
	group singleflight.Group

	mu     sync.Mutex
	store  Store
	closed bool
}

// NewLazy returns a Store calling open the first time it is used.
func NewLazy(open func(ctx context.Context) (Store, error)) *Lazy {
	return &Lazy{open: open}
}

// Ready opens the backend if it is not open yet.
func (l *Lazy) Ready(ctx context.Context) error {
	_, err := l.backend(ctx)
	return err
}

func (l *Lazy) current() (Store, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store, l.closed
}

func (l *Lazy) backend(ctx context.Context) (Store, error) {
	if s, closed := l.current(); closed {
		return nil, ErrClosed
	} else if s != nil {
		return s, nil
	}
	v, err, _ := l.group.Do("open", func() (any, error) {
		if s, closed := l.current(); closed {
			return nil, ErrClosed
		} else if s != nil {
			return s, nil
		}
		s, err := l.open(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed {
			_ = s.Close()
			return nil, ErrClosed
		}
		l.store = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Store), nil
}

// Get implements Store.
func (l *Lazy) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := l.backend(ctx)
	if err != nil {
		return "", false, err
	}
	return s.Get(ctx, key)
}

// Set implements Store.
func (l *Lazy) Set(ctx context.Context, key, value string) error {
	s, err := l.backend(ctx)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, value)
}

// Delete implements Store.
func (l *Lazy) Delete(ctx context.Context, key string) error {
	s, err := l.backend(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

// Close implements Store. The backend is closed if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	s := l.store
	l.store = nil
	l.closed = true
	l.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close()
}
