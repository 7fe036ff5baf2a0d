package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type checkpointEntry struct {
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// FileCursorStore persists named cursors to a JSON file, replacing it atomically
// on every save.
type FileCursorStore struct {
	path string
	mu   sync.Mutex
}

func NewFileCursorStore(path string) (*FileCursorStore, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	return &FileCursorStore{path: path}, nil
}

func (c *FileCursorStore) LoadCursor(_ context.Context, name string) (uint64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.read()
	if err != nil {
		return 0, false, err
	}
	entry, ok := entries[name]
	return entry.LastProcessedBlock, ok, nil
}

func (c *FileCursorStore) SaveCursor(_ context.Context, name string, block uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.read()
	if err != nil {
		return err
	}
	entries[name] = checkpointEntry{
		LastProcessedBlock: block,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

func (c *FileCursorStore) read() (map[string]checkpointEntry, error) {
	entries := make(map[string]checkpointEntry)

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	return entries, nil
}
