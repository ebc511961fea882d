package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moasq/toolfactory/internal/tool"
)

func sampleSkill(slug string) *tool.Skill {
	return &tool.Skill{
		Base: tool.Base{
			Name:        "Contract Risks",
			Slug:        slug,
			Description: "Summarizes contracts into risk lists",
			Tags:        []string{"legal"},
			Category:    "document-creation",
			Content:     "## Overview\n",
		},
		Complexity: tool.ComplexitySimple,
		Triggers:   []string{"summarize this contract", "list contract risks"},
	}
}

func sampleCommand(slug string) *tool.Command {
	return &tool.Command{
		Base:          tool.Base{Name: "Git Last", Slug: slug, Description: "Show the last commit", Tags: []string{"git"}},
		Command:       "git log -1",
		Prerequisites: []string{"git"},
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Close() })

	id, err := s.Save(ctx, sampleSkill("contract-risks"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.Save(ctx, sampleSkill("contract-risks"))
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	// Same slug under another kind is fine.
	id2, err := s.Save(ctx, sampleCommand("contract-risks"))
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tool.KindSkill, got.Kind)
	assert.Equal(t, "contract-risks", got.Slug)
	skill, ok := got.Tool.(*tool.Skill)
	require.True(t, ok)
	assert.Equal(t, []string{"summarize this contract", "list contract risks"}, skill.Triggers)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, id2, list[1].ID)
	assert.IsType(t, &tool.Command{}, list[1].Tool)

	_, err = s.Save(ctx, sampleSkill("Not Kebab"))
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	exerciseStore(t, NewFileStore(dir))
	_, err := os.Stat(filepath.Join(dir, "tools.json"))
	assert.NoError(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "tools.db"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TOOLFACTORY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TOOLFACTORY_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	_, err = s.DB.Exec(ctx, "TRUNCATE tool_factory_tools")
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "redis", "")
	assert.Error(t, err)

	s, err := Open(context.Background(), "", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
}

func TestRemoteSaver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SavePath, r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		switch body["slug"] {
		case "taken":
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"error":"slug taken"}`)
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"database down"}`)
		default:
			assert.Equal(t, "skill", body["toolType"])
			_, _ = io.WriteString(w, `{"toolId":"abc-123"}`)
		}
	}))
	defer srv.Close()

	saver := NewRemoteSaver(srv.URL, nil)
	ctx := context.Background()

	id, err := saver.Save(ctx, sampleSkill("fresh"))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	_, err = saver.Save(ctx, sampleSkill("taken"))
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	_, err = saver.Save(ctx, sampleSkill("broken"))
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, http.StatusInternalServerError, saveErr.Status)
	assert.Equal(t, "database down", saveErr.Message)
}

func TestHistoryStore(t *testing.T) {
	hs := NewHistoryStore(t.TempDir())

	entries, err := hs.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, entries)

	for i := 0; i < maxHistoryEntries+3; i++ {
		require.NoError(t, hs.Append(HistoryEntry{Kind: tool.KindSkill, Description: "summarize contracts", Outcome: OutcomePreviewed, Score: i}))
	}
	all, err := hs.List()
	require.NoError(t, err)
	require.Len(t, all, maxHistoryEntries)
	assert.Equal(t, 3, all[0].Score, "oldest entries are dropped")
	assert.False(t, all[0].CreatedAt.IsZero())

	recent, err := hs.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, maxHistoryEntries+2, recent[1].Score)

	require.NoError(t, hs.Clear())
	all, err = hs.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}
