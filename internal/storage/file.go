package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/moasq/toolfactory/internal/tool"
)

type fileRecord struct {
	Record
	Data json.RawMessage `json:"tool"`
}

// FileStore keeps every saved tool in a single local JSON file.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file store in dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) filePath() string {
	return filepath.Join(s.dir, "tools.json")
}

// Save appends t unless its kind already has the slug.
func (s *FileStore) Save(_ context.Context, t tool.Tool) (string, error) {
	rec, err := newRecord(t)
	if err != nil {
		return "", err
	}
	data, err := tool.Marshal(t)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readUnsafe()
	if err != nil {
		return "", err
	}
	for _, r := range records {
		if r.Kind == rec.Kind && r.Slug == rec.Slug {
			return "", fmt.Errorf("%w: %s %q", ErrDuplicateSlug, rec.Kind, rec.Slug)
		}
	}

	records = append(records, fileRecord{Record: rec, Data: data})
	if err := s.writeUnsafe(records); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Get returns the tool with id.
func (s *FileStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readUnsafe()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID == id {
			out := r.Record
			if err := decodeRecord(&out, r.Data); err != nil {
				return nil, err
			}
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns every stored tool, oldest first.
func (s *FileStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readUnsafe()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		rec := r.Record
		if err := decodeRecord(&rec, r.Data); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) readUnsafe() ([]fileRecord, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tools: %w", err)
	}

	var records []fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse tools: %w", err)
	}
	return records, nil
}

func (s *FileStore) writeUnsafe(records []fileRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tools: %w", err)
	}

	tmp := s.filePath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tools: %w", err)
	}
	return os.Rename(tmp, s.filePath())
}
