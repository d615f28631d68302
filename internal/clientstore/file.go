package clientstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileStore implements Store on a single JSON file, for single-host
// deployments and local development. Writes go through an atomic rename so a
// concurrent reader never sees a torn file. A filesystem watch turns writes
// by other processes into change events, mirroring how browser tabs observe
// each other's local storage.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	data map[string]json.RawMessage
}

// NewFileStore opens (or creates) the JSON file at path.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger,
		data:   make(map[string]json.RawMessage),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the backing file into memory. A missing file is an empty store;
// a corrupt file is treated the same, with a warning, because client storage
// must never fail to open.
func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read client store %s: %w", s.path, err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn("client store file is corrupt, starting empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return nil
	}
	s.data = data
	return nil
}

// flush writes the in-memory map to disk via a temp file and rename.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode client store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write client store %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace client store %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-read so writes from other processes are visible without a watch.
	if err := s.load(); err != nil {
		return nil, err
	}

	value, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("client store value for %s is not valid JSON", key)
	}
	if s.data == nil {
		s.data = make(map[string]json.RawMessage)
	}
	s.data[key] = append([]byte(nil), value...)
	return s.flush()
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

// Watch translates filesystem notifications on the backing file into change
// events. File-level watching cannot attribute a change to a key, so events
// carry an empty Key and receivers re-read what they need.
func (s *FileStore) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: the atomic-rename write pattern replaces the file
	// inode, which a direct file watch would lose track of.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				select {
				case events <- Event{}:
				case <-ctx.Done():
					return
				default:
					// Receiver is behind; it re-reads on the next event anyway.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("client store watch error", slog.String("error", err.Error()))
			}
		}
	}()

	return events, nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Close() error {
	return nil
}
