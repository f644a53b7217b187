package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the name of the session file inside the config directory.
const FileName = "session.json"

// FileStore keeps the slots in a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

// NewFileStore returns a store writing to dir/session.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Path: filepath.Join(dir, FileName)}
}

// Load implements Store.
func (f *FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	var slots map[string]string
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", f.Path, err)
	}
	return slots, nil
}

// Save implements Store. An empty slot set removes the file.
func (f *FileStore) Save(slots map[string]string) error {
	if len(slots) == 0 {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// MemoryStore keeps slots in memory.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string]string
	saves int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]string)}
}

// Load implements Store.
func (m *MemoryStore) Load() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySlots(m.slots), nil
}

// Save implements Store.
func (m *MemoryStore) Save(slots map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = copySlots(slots)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
