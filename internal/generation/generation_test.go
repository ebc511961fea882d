package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moasq/toolfactory/internal/prompts"
	"github.com/moasq/toolfactory/internal/tool"
)

var skillReq = Request{ToolType: tool.KindSkill, Description: "Summarize PDF contracts into risks", Category: "research"}

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, skillReq.Validate())

	short := skillReq
	short.Description = "too short"
	assert.ErrorIs(t, short.Validate(), ErrInvalidRequest)

	bad := skillReq
	bad.ToolType = "plugin"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidRequest)
}

func TestRequestJSONOmitsEmptyHints(t *testing.T) {
	data, err := json.Marshal(NewRequest(tool.KindAgent, "Reviews pull requests", prompts.Hints{Persona: "strict"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"toolType":"agent","description":"Reviews pull requests","persona":"strict"}`, string(data))
}

func TestHTTPClientStreamsChunksInOrder(t *testing.T) {
	parts := [][]byte{[]byte("---\nname: Caf"), {0xC3}, {0xA9}, []byte(" Helper\n---\n")}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, GeneratePath, r.URL.Path)
		var got Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, skillReq, got)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, p := range parts {
			_, _ = w.Write(p)
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	var chunks []string
	err := NewHTTPClient(srv.URL+"/").Stream(context.Background(), skillReq, func(s string) {
		chunks = append(chunks, s)
	})
	require.NoError(t, err)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q splits a rune", c)
	}
	assert.Equal(t, "---\nname: Café Helper\n---\n", strings.Join(chunks, ""))
}

func TestHTTPClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"upstream model unavailable"}`)
	}))
	defer srv.Close()

	req := skillReq
	req.ToolType = tool.KindMCP
	err := NewHTTPClient(srv.URL).Stream(context.Background(), req, func(string) {
		t.Fatal("no chunks expected")
	})
	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, http.StatusBadGateway, genErr.Status)
	assert.Equal(t, "Failed to generate MCP server: upstream model unavailable", err.Error())
}

func TestHTTPClientMidStreamFailureKeepsChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = io.WriteString(w, "partial output")
		w.(http.Flusher).Flush()
	}))
	defer srv.Close()

	var got strings.Builder
	err := NewHTTPClient(srv.URL).Stream(context.Background(), skillReq, func(s string) {
		got.WriteString(s)
	})
	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, genErr.Message, "stream interrupted")
	assert.Equal(t, "partial output", got.String())
}

func TestHTTPClientRejectsInvalidRequestWithoutNetwork(t *testing.T) {
	err := NewHTTPClient("http://127.0.0.1:1").Stream(context.Background(), Request{ToolType: tool.KindSkill}, func(string) {})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSplitIncompleteRune(t *testing.T) {
	euro := []byte("€") // 3 bytes
	c, r := splitIncompleteRune(append([]byte("ab"), euro[:2]...))
	assert.Equal(t, "ab", string(c))
	assert.Equal(t, euro[:2], r)

	c, r = splitIncompleteRune([]byte("ab€"))
	assert.Equal(t, "ab€", string(c))
	assert.Empty(t, r)
}

type fakeStreamer struct {
	deltas       []string
	err          error
	system, user string
}

func (f *fakeStreamer) Stream(_ context.Context, system, user string, onDelta func(string) error) error {
	f.system, f.user = system, user
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return f.err
}

func TestLocalBuildsPromptsAndStreams(t *testing.T) {
	model := &fakeStreamer{deltas: []string{"a", "b"}}
	var got []string
	err := NewLocal(model, nil).Stream(context.Background(), skillReq, func(s string) { got = append(got, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	p, err := prompts.Build(skillReq.ToolType, skillReq.Description, skillReq.Hints())
	require.NoError(t, err)
	assert.Equal(t, p.System, model.system)
	assert.Equal(t, p.User, model.user)
}

func TestLocalWrapsBackendFailure(t *testing.T) {
	model := &fakeStreamer{deltas: []string{"partial"}, err: errors.New("overloaded")}
	err := NewLocal(model, nil).Stream(context.Background(), skillReq, func(string) {})
	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "Failed to generate skill: overloaded", err.Error())
}

func TestAccumulatorEpochs(t *testing.T) {
	a := NewAccumulator(1)
	assert.True(t, a.Append("hello "))
	assert.True(t, a.Append("world"))
	assert.Equal(t, "hello world", a.String())

	a.Invalidate()
	assert.False(t, a.Append("late chunk"))
	assert.Equal(t, "hello world", a.String())
	assert.True(t, a.Invalidated())

	b := NewAccumulator(2)
	b.Append("x")
	b.Complete()
	assert.False(t, b.Append("y"))
	assert.True(t, b.IsComplete())
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, uint64(2), b.Epoch())
}
