package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moasq/toolfactory/internal/tool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tool_factory_tools (
	id         UUID PRIMARY KEY,
	kind       TEXT NOT NULL,
	slug       TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (kind, slug)
);`

const uniqueViolation = "23505"

// PostgresStore keeps tools in Postgres (including Supabase-hosted databases).
type PostgresStore struct {
	DB *pgxpool.Pool
}

// OpenPostgres connects and migrates.
func OpenPostgres(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate Postgres: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (ps *PostgresStore) Save(ctx context.Context, t tool.Tool) (string, error) {
	rec, err := newRecord(t)
	if err != nil {
		return "", err
	}
	data, err := tool.Marshal(t)
	if err != nil {
		return "", err
	}
	_, err = ps.DB.Exec(ctx, `
		INSERT INTO tool_factory_tools (id, kind, slug, name, data, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		rec.ID, string(rec.Kind), rec.Slug, rec.Name, string(data), rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", fmt.Errorf("%w: %s %q", ErrDuplicateSlug, rec.Kind, rec.Slug)
		}
		return "", fmt.Errorf("failed to insert tool: %w", err)
	}
	return rec.ID, nil
}

func (ps *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row := ps.DB.QueryRow(ctx, `
		SELECT id::text, kind, slug, name, data::text, created_at
		FROM tool_factory_tools WHERE id::text = $1`, id)
	rec, err := scanPostgres(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (ps *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := ps.DB.Query(ctx, `
		SELECT id::text, kind, slug, name, data::text, created_at
		FROM tool_factory_tools ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (ps *PostgresStore) Close() error {
	ps.DB.Close()
	return nil
}

func scanPostgres(row pgx.Row) (*Record, error) {
	var (
		rec  Record
		kind string
		data string
	)
	if err := row.Scan(&rec.ID, &kind, &rec.Slug, &rec.Name, &data, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Kind = tool.Kind(kind)
	if err := decodeRecord(&rec, []byte(data)); err != nil {
		return nil, err
	}
	return &rec, nil
}
