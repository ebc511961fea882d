package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moasq/toolfactory/internal/tool"
)

// Outcome is how a generation attempt ended.
type Outcome string

const (
	OutcomeSaved     Outcome = "saved"
	OutcomePreviewed Outcome = "previewed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
	OutcomeAbandoned Outcome = "abandoned"
)

// maxHistoryEntries bounds history.json; older attempts are dropped.
const maxHistoryEntries = 200

// HistoryEntry records one generation attempt.
type HistoryEntry struct {
	Kind        tool.Kind     `json:"toolType"`
	Description string        `json:"description"`
	Outcome     Outcome       `json:"outcome"`
	Slug        string        `json:"slug,omitempty"`
	Score       int           `json:"score,omitempty"`
	ToolID      string        `json:"toolId,omitempty"`
	Error       string        `json:"error,omitempty"`
	Bytes       int           `json:"bytes"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// HistoryStore keeps recent generation attempts in a local JSON file.
type HistoryStore struct {
	mu  sync.Mutex
	dir string
}

// NewHistoryStore creates a history store at the given directory.
func NewHistoryStore(dir string) *HistoryStore {
	return &HistoryStore{dir: dir}
}

func (s *HistoryStore) filePath() string {
	return filepath.Join(s.dir, "history.json")
}

// Append adds an entry, stamping CreatedAt when unset.
func (s *HistoryStore) Append(e HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readUnsafe()
	if err != nil {
		entries = nil // start fresh if the file is corrupted
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	entries = append(entries, e)
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	return s.writeUnsafe(entries)
}

// List returns all entries, oldest first.
func (s *HistoryStore) List() ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readUnsafe()
}

// Recent returns the last n entries.
func (s *HistoryStore) Recent(n int) ([]HistoryEntry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(entries) <= n {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// Clear removes all entries.
func (s *HistoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeUnsafe(nil)
}

func (s *HistoryStore) readUnsafe() ([]HistoryEntry, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return entries, nil
}

func (s *HistoryStore) writeUnsafe(entries []HistoryEntry) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return os.WriteFile(s.filePath(), data, 0o644)
}
