package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileStore keeps one JSON file per document key inside a data directory.
// Several processes may share the directory; fsnotify surfaces their writes.
// A FileStore remembers the exact bytes of its own last write per key so the
// watcher can tell foreign writes from the echo of its own.
type FileStore struct {
	dir string

	mu        sync.Mutex
	lastWrite map[string][]byte
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("data directory path cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", dir, err)
	}
	return &FileStore{
		dir:       dir,
		lastWrite: make(map[string][]byte),
	}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads and decodes the document under key.
func (s *FileStore) Load(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read document '%s': %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode document '%s': %w", key, err)
	}
	return true, nil
}

// Save writes the document atomically (temp file + rename) so a concurrent
// reader never observes a partial document.
func (s *FileStore) Save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document '%s': %w", key, err)
	}

	s.mu.Lock()
	s.lastWrite[key] = data
	s.mu.Unlock()

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write document '%s': %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("failed to persist document '%s': %w", key, err)
	}
	return nil
}

// Watch emits an Event whenever a document file changes with content that
// this store did not write itself.
func (s *FileStore) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch data directory '%s': %w", s.dir, err)
	}

	events := make(chan Event, 8)
	go func() {
		defer close(events)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case fsEvent, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !fsEvent.Has(fsnotify.Write) && !fsEvent.Has(fsnotify.Create) {
					continue
				}
				key := keyFromFilename(filepath.Base(fsEvent.Name))
				if key == "" {
					continue
				}
				data, err := os.ReadFile(s.path(key))
				if err != nil {
					continue // mid-rename; the follow-up event carries the content
				}
				if s.isOwnWrite(key, data) {
					continue
				}
				select {
				case events <- Event{Key: key, Data: data}:
				case <-ctx.Done():
					return
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("FileStore watcher error: %v", watchErr)
			}
		}
	}()
	return events, nil
}

func (s *FileStore) isOwnWrite(key string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Equal(s.lastWrite[key], data)
}

func (s *FileStore) Close() error { return nil }

// keyFromFilename maps "<key>.json" back to the document key, ignoring temp
// files and anything else living in the directory.
func keyFromFilename(name string) string {
	if !strings.HasSuffix(name, ".json") {
		return ""
	}
	key := strings.TrimSuffix(name, ".json")
	switch key {
	case KeyListings, KeyLeads, KeyConfig:
		return key
	}
	return ""
}
