// Package storage persists accepted tools. Every store enforces one slug per
// kind and reports collisions as ErrDuplicateSlug.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moasq/toolfactory/internal/tool"
)

var (
	ErrNotFound      = errors.New("tool not found")
	ErrDuplicateSlug = errors.New("a tool with this slug already exists")
)

// Saver persists a tool and returns its identifier.
type Saver interface {
	Save(ctx context.Context, t tool.Tool) (string, error)
}

// Record is a stored tool with its metadata.
type Record struct {
	ID        string    `json:"id"`
	Kind      tool.Kind `json:"kind"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Tool      tool.Tool `json:"-"`
}

// Store is a queryable Saver.
type Store interface {
	Saver
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// Backends accepted by Open.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Open returns the store for backend. For file and sqlite, dsn is a path;
// for postgres it is a connection string.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return NewFileStore(dsn), nil
	case BackendSQLite:
		return OpenSQLite(ctx, dsn)
	case BackendPostgres:
		return OpenPostgres(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown store %q (want file, sqlite or postgres)", backend)
}

func newRecord(t tool.Tool) (Record, error) {
	if t == nil {
		return Record{}, fmt.Errorf("cannot save nil tool")
	}
	b := t.Common()
	if !tool.IsKebab(b.Slug) {
		return Record{}, fmt.Errorf("cannot save tool with invalid slug %q", b.Slug)
	}
	return Record{
		ID:        uuid.NewString(),
		Kind:      t.Kind(),
		Slug:      b.Slug,
		Name:      b.Name,
		CreatedAt: time.Now().UTC(),
		Tool:      t,
	}, nil
}

func decodeRecord(r *Record, data []byte) error {
	t, err := tool.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("failed to decode stored tool %s: %w", r.ID, err)
	}
	r.Tool = t
	return nil
}
