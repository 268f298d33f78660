package kv

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/maruel/boarddb/internal/jsonldb"
)

// Entry is one row of the File store.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// File is a Store persisted as a JSONL file of Entry rows.
//
// New keys are appended to the file. Updating or deleting a key rewrites
// the file atomically.
type File struct {
	mu     sync.Mutex
	table  *jsonldb.Table[Entry]
	index  map[string]int
	closed bool
}

// NewFile opens or creates the store at path.
func NewFile(path string) (*File, error) {
	table, err := jsonldb.NewTable[Entry](path)
	if err != nil {
		return nil, err
	}
	f := &File{table: table}
	rows := table.All()
	compacted := compact(rows)
	if len(compacted) != len(rows) {
		// A crash between an append and a rewrite can leave a key twice.
		slog.Info("compacting kv file", "path", path, "rows", len(rows), "keys", len(compacted))
		if err := table.Replace(compacted); err != nil {
			return nil, err
		}
	}
	f.reindex(compacted)
	return f, nil
}

// compact keeps the last value of every key, in first-seen order.
func compact(rows []Entry) []Entry {
	pos := make(map[string]int, len(rows))
	out := make([]Entry, 0, len(rows))
	for _, e := range rows {
		if i, ok := pos[e.Key]; ok {
			out[i].Value = e.Value
			continue
		}
		pos[e.Key] = len(out)
		out = append(out, e)
	}
	return out
}

func (f *File) reindex(rows []Entry) {
	f.index = make(map[string]int, len(rows))
	for i, e := range rows {
		f.index[e.Key] = i
	}
}

// Get implements Store.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	i, ok := f.index[key]
	if !ok {
		return "", false, nil
	}
	f.table.Mu.RLock()
	defer f.table.Mu.RUnlock()
	return f.table.Rows[i].Value, true, nil
}

// Set implements Store.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	i, ok := f.index[key]
	if !ok {
		if err := f.table.Append(Entry{Key: key, Value: value}); err != nil {
			return fmt.Errorf("failed to set %q: %w", key, err)
		}
		f.index[key] = len(f.index)
		return nil
	}
	rows := f.table.All()
	if rows[i].Value == value {
		return nil
	}
	rows[i].Value = value
	if err := f.table.Replace(rows); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	i, ok := f.index[key]
	if !ok {
		return nil
	}
	rows := slices.Delete(f.table.All(), i, i+1)
	if err := f.table.Replace(rows); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	f.reindex(rows)
	return nil
}

// Close implements Store.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
