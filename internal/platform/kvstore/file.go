package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"pawty/internal/sentinel"
)

// File keeps every key in one JSON object on disk. Each write replaces the
// file atomically via rename.
type File struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// OpenFile loads path, creating an empty store when it does not exist.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read kv file: %w", err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("decode kv file %s: %w", path, sentinel.ErrMalformed)
	}
	return f, nil
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return v, nil
}

func (f *File) SetMany(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.copyLocked()
	for k, v := range values {
		next[k] = v
	}
	return f.commitLocked(next)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.copyLocked()
	for _, k := range keys {
		delete(next, k)
	}
	return f.commitLocked(next)
}

func (f *File) copyLocked() map[string]string {
	next := make(map[string]string, len(f.values))
	for k, v := range f.values {
		next[k] = v
	}
	return next
}

// commitLocked writes next to disk and only then swaps it in, so a failed
// write leaves both disk and memory at the previous state.
func (f *File) commitLocked(next map[string]string) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode kv file: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".kv-*.json")
	if err != nil {
		return fmt.Errorf("create temp kv file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("write kv file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close kv file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace kv file: %w", err)
	}
	f.values = next
	return nil
}
