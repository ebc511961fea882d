package claude

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestStreamNDJSONLinesHandlesLargeLine(t *testing.T) {
	large := strings.Repeat("a", 1024*1024+128)
	input := []byte(large + "\n")

	var got [][]byte
	err := streamNDJSONLines(bytes.NewReader(input), func(line []byte) error {
		cp := append([]byte(nil), line...)
		got = append(got, cp)
		return nil
	})
	if err != nil {
		t.Fatalf("streamNDJSONLines() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	if len(got[0]) != len(large) {
		t.Fatalf("line length = %d, want %d", len(got[0]), len(large))
	}
}

func TestStreamNDJSONLinesProcessesFinalLineWithoutNewline(t *testing.T) {
	input := []byte("{\"a\":1}\n{\"b\":2}")

	var lines []string
	err := streamNDJSONLines(bytes.NewReader(input), func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	if err != nil {
		t.Fatalf("streamNDJSONLines() error = %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "{\"a\":1}" || lines[1] != "{\"b\":2}" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestStreamNDJSONLinesReturnsReaderError(t *testing.T) {
	wantErr := errors.New("boom")
	r := &failingReader{
		first: []byte("{\"ok\":true}\n"),
		err:   wantErr,
	}

	var lines []string
	err := streamNDJSONLines(r, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("streamNDJSONLines() error = %v, want %v", err, wantErr)
	}
	if len(lines) != 1 || lines[0] != "{\"ok\":true}" {
		t.Fatalf("unexpected lines before error: %#v", lines)
	}
}

type failingReader struct {
	first []byte
	err   error
	done  bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		n := copy(p, r.first)
		if n < len(r.first) {
			r.first = r.first[n:]
			r.done = false
		}
		return n, nil
	}
	return 0, r.err
}

var _ io.Reader = (*failingReader)(nil)

func TestParseStreamEvent(t *testing.T) {
	delta := parseStreamEvent([]byte(`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"---\nname"}}}`))
	if delta == nil || delta.Type != "content_block_delta" || delta.Text != "---\nname" {
		t.Fatalf("unexpected delta event: %#v", delta)
	}

	msg := parseStreamEvent([]byte(`{"type":"assistant","message":{"content":[{"type":"text","text":"a"},{"type":"tool_use","name":"Read"},{"type":"text","text":"b"}]}}`))
	if msg == nil || msg.Text != "ab" {
		t.Fatalf("unexpected assistant event: %#v", msg)
	}

	if ev := parseStreamEvent([]byte(`{"type":"stream_event","event":{"type":"message_start"}}`)); ev != nil {
		t.Fatalf("expected message_start to be ignored, got %#v", ev)
	}
	if ev := parseStreamEvent([]byte(`not json`)); ev != nil {
		t.Fatalf("expected nil for invalid JSON, got %#v", ev)
	}
}

func TestMapModelName(t *testing.T) {
	tests := map[string]string{
		"claude-sonnet-4-5": "sonnet",
		"claude-opus-4-1":   "opus",
		"Claude-Haiku":      "haiku",
		"custom-model":      "custom-model",
	}
	for in, want := range tests {
		if got := MapModelName(in); got != want {
			t.Errorf("MapModelName(%q) = %q, want %q", in, got, want)
		}
	}
}

const fakeCLI = `#!/bin/sh
cat > /dev/null
echo '{"type":"system","subtype":"init","session_id":"s1"}'
echo '{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}}'
echo '{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}}'
echo '{"type":"result","subtype":"success","result":"Hello","total_cost_usd":0.01}'
`

func writeFakeCLI(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "claude")
	if err := os.WriteFile(path, []byte(fakeCLI), 0o755); err != nil {
		t.Fatalf("write fake cli: %v", err)
	}
	return path
}

func TestGenerateStreamingDeliversDeltas(t *testing.T) {
	c := NewClient(writeFakeCLI(t)).WithModel("claude-sonnet-4-5")

	var deltas []string
	resp, err := c.GenerateStreaming(context.Background(), "prompt", GenerateOpts{SystemPrompt: "sys"}, func(ev StreamEvent) error {
		if ev.Type == "content_block_delta" {
			deltas = append(deltas, ev.Text)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStreaming() error = %v", err)
	}
	if strings.Join(deltas, "") != "Hello" {
		t.Fatalf("deltas = %#v", deltas)
	}
	if resp.Result != "Hello" || resp.SessionID != "s1" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestGenerateStreamingStopsOnCallbackError(t *testing.T) {
	c := NewClient(writeFakeCLI(t))
	stop := errors.New("stop")

	_, err := c.GenerateStreaming(context.Background(), "prompt", GenerateOpts{}, func(ev StreamEvent) error {
		if ev.Type == "content_block_delta" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("GenerateStreaming() error = %v, want %v", err, stop)
	}
}

func TestStreamArgs(t *testing.T) {
	args := NewClient("claude").WithModel("claude-opus-4-1").streamArgs(GenerateOpts{SystemPrompt: "sys"})
	joined := strings.Join(args, " ")
	for _, want := range []string{"--output-format stream-json", "--max-turns 1", "--system-prompt sys", "--model opus"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}
