package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// FileStore keeps the cache in one JSON file for DSN-less runs.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileEntry struct {
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

// NewFileStore builds a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(_ context.Context, chainID uint64, purpose string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	entry, ok := entries[key(chainID, purpose)]
	return entry.Value, ok, nil
}

func (s *FileStore) Put(_ context.Context, chainID uint64, purpose, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[key(chainID, purpose)] = fileEntry{
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return s.save(entries)
}

func (s *FileStore) Delete(_ context.Context, chainID uint64, purpose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	delete(entries, key(chainID, purpose))
	return s.save(entries)
}

func (s *FileStore) load() (map[string]fileEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]fileEntry), nil
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}

	entries := make(map[string]fileEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse cache: %w", err)
	}
	return entries, nil
}

func (s *FileStore) save(entries map[string]fileEntry) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func key(chainID uint64, purpose string) string {
	return strconv.FormatUint(chainID, 10) + "/" + purpose
}
