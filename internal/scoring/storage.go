package scoring

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ScoreStorage defines the interface for loading and saving score data.
// This allows for mocking the storage layer during tests.
type ScoreStorage interface {
	// LoadAll loads all score entries from the persistence layer.
	LoadAll(ctx context.Context) ([]ScoreHistoryEntry, error)
	// Append adds one entry to the persistence layer.
	Append(ctx context.Context, entry ScoreHistoryEntry) error
}

// JSONFileStorage is an implementation of ScoreStorage that keeps one JSON
// object per line in a file.
type JSONFileStorage struct {
	mu   sync.Mutex
	path string
}

// NewJSONFileStorage creates a JSONFileStorage at path. An empty path
// resolves to ~/.config/go-match/scores.json.
func NewJSONFileStorage(path string) (*JSONFileStorage, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".config", "go-match", "scores.json")
	}
	return &JSONFileStorage{path: path}, nil
}

// Path returns the backing file path.
func (jfs *JSONFileStorage) Path() string {
	return jfs.path
}

// LoadAll reads and decodes all score entries from the JSON file.
func (jfs *JSONFileStorage) LoadAll(_ context.Context) ([]ScoreHistoryEntry, error) {
	jfs.mu.Lock()
	defer jfs.mu.Unlock()
	return jfs.loadAll()
}

func (jfs *JSONFileStorage) loadAll() ([]ScoreHistoryEntry, error) {
	file, err := os.Open(jfs.path)
	// If the file doesn't exist, it's not an error; return an empty slice.
	if os.IsNotExist(err) {
		return []ScoreHistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening scores file for reading: %w", err)
	}
	defer file.Close()

	entries := make([]ScoreHistoryEntry, 0)
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var entry ScoreHistoryEntry
		if err := decoder.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error decoding JSON entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Append adds entry to the end of the file, creating it if needed.
func (jfs *JSONFileStorage) Append(_ context.Context, entry ScoreHistoryEntry) error {
	jfs.mu.Lock()
	defer jfs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(jfs.path), 0755); err != nil {
		return fmt.Errorf("error creating scores directory: %w", err)
	}

	file, err := os.OpenFile(jfs.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening scores file for writing: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := json.NewEncoder(writer).Encode(entry); err != nil {
		return fmt.Errorf("error encoding JSON entry: %w", err)
	}
	return writer.Flush()
}

// NopStorage discards everything. Used when score history is disabled.
type NopStorage struct{}

func (NopStorage) LoadAll(context.Context) ([]ScoreHistoryEntry, error) { return nil, nil }
func (NopStorage) Append(context.Context, ScoreHistoryEntry) error      { return nil }
