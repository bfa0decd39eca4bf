// Package history persists committed transcripts as an append-only JSONL file
// under the user's state directory.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dicta-app/dicta/internal/session"
)

// Record is one persisted transcript.
type Record struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	DurationSeconds float64   `json:"duration_seconds"`
	WordCount       int       `json:"word_count"`
	Timestamp       time.Time `json:"timestamp"`
}

// Store appends records to a JSONL file. It implements session.HistoryRecorder.
type Store struct {
	path string
}

// DefaultPath resolves the history file location from XDG conventions.
func DefaultPath() (string, error) {
	stateDir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "dicta", "history.jsonl"), nil
}

// NewStore creates a store writing to path, creating parent directories.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Record appends one entry. Each call opens, appends, and closes so that a
// crash never corrupts more than the final line.
func (s *Store) Record(_ context.Context, entry session.HistoryEntry) error {
	record := Record{
		ID:              uuid.NewString(),
		Text:            entry.Text,
		DurationSeconds: entry.DurationSeconds,
		WordCount:       entry.WordCount,
		Timestamp:       entry.Timestamp,
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest last. Malformed lines are
// skipped so one bad write never makes history unreadable.
func (s *Store) Recent(limit int) ([]Record, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
