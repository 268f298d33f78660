// Package jsonldb stores a slice of records as a JSON Lines file, one record
// per line, fully cached in memory.
package jsonldb

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// Table handles storage and in-memory caching for a single table in JSONL format.
//
// Append is cheap and only touches the end of the file. Replace rewrites the
// whole file through a temporary file renamed over the original, so a crash
// leaves either the old or the new content.
type Table[T any] struct {
	path string
	Mu   sync.RWMutex

	Rows []T
}

// NewTable opens the table stored at path, creating the parent directory
// as needed, and loads every row.
func NewTable[T any](path string) (*Table[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	t := &Table[T]{path: path}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Path returns the backing file.
func (t *Table[T]) Path() string {
	return t.path
}

func (t *Table[T]) load() error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	f, err := os.Open(t.path)
	if os.IsNotExist(err) {
		t.Rows = []T{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open table file %s: %w", t.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows := []T{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(data, &row); err != nil {
			return fmt.Errorf("failed to unmarshal row %d in %s: %w", line, t.path, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read table file %s: %w", t.path, err)
	}
	t.Rows = rows
	return nil
}

// All returns a copy of all rows.
func (t *Table[T]) All() []T {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	rows := make([]T, len(t.Rows))
	copy(rows, t.Rows)
	return rows
}

// Append adds a new row to the table and persists it.
func (t *Table[T]) Append(row T) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open table file for append: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write row: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close table file: %w", err)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Replace replaces all rows with the provided slice and persists it atomically.
func (t *Table[T]) Replace(rows []T) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
	}
	if err := atomic.WriteFile(t.path, &buf); err != nil {
		return fmt.Errorf("failed to replace table file %s: %w", t.path, err)
	}
	t.Rows = rows
	return nil
}
