package claude

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Client wraps the Claude Code CLI as a text-generation backend.
type Client struct {
	claudePath string
	model      string // default model override (empty = let claude decide)
}

// NewClient creates a new Claude Code client.
func NewClient(claudePath string) *Client {
	return &Client{
		claudePath: claudePath,
	}
}

// WithModel returns a copy of the client with a specific model.
func (c *Client) WithModel(model string) *Client {
	return &Client{
		claudePath: c.claudePath,
		model:      model,
	}
}

// GenerateOpts holds options for a GenerateStreaming call.
type GenerateOpts struct {
	SystemPrompt string
	MaxTurns     int    // Max agentic turns (default 1)
	Model        string // Model override for this call
	WorkDir      string // Working directory for the claude process
}

// Usage holds token usage data from a Claude response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the final outcome of a streamed call.
type Response struct {
	Result    string
	SessionID string
	CostUSD   float64
	Usage     Usage
}

// StreamEvent represents a parsed event from Claude Code's stream-json output.
type StreamEvent struct {
	Type    string // "assistant", "result", "system", "content_block_delta"
	Subtype string // e.g. "init"

	// For assistant text events and content_block_delta events
	Text string

	// For result events
	Result    string
	SessionID string
	CostUSD   float64
	IsError   bool
	Usage     Usage
}

// streamNDJSONLines reads newline-delimited JSON from r and calls onLine for each line.
// It does not impose bufio.Scanner token limits and also processes a final line without
// a trailing newline.
func streamNDJSONLines(r io.Reader, onLine func([]byte) error) error {
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimRight(line, "\r\n")
			if len(bytes.TrimSpace(line)) > 0 {
				if onErr := onLine(line); onErr != nil {
					return onErr
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (c *Client) streamArgs(opts GenerateOpts) []string {
	args := []string{"-p", "--output-format", "stream-json", "--verbose", "--include-partial-messages"}

	maxTurns := opts.MaxTurns
	if maxTurns == 0 {
		maxTurns = 1
	}
	args = append(args, "--max-turns", fmt.Sprintf("%d", maxTurns))

	if opts.SystemPrompt != "" {
		args = append(args, "--system-prompt", opts.SystemPrompt)
	}

	// Model selection: per-call override > client default
	model := opts.Model
	if model == "" {
		model = c.model
	}
	if model != "" {
		args = append(args, "--model", MapModelName(model))
	}
	return args
}

// GenerateStreaming sends a prompt and streams events via callback. An error
// returned by onEvent stops the stream and kills the process.
func (c *Client) GenerateStreaming(ctx context.Context, userMessage string, opts GenerateOpts, onEvent func(StreamEvent) error) (*Response, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.claudePath, c.streamArgs(opts)...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}

	// Strip CLAUDECODE env var to allow nested sessions
	cmd.Env = filterEnv(os.Environ(), "CLAUDECODE")
	// Pass user message via stdin to avoid argument length limits
	cmd.Stdin = strings.NewReader(userMessage)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start claude: %w", err)
	}

	var last *Response
	var sessionID string
	var text strings.Builder

	streamErr := streamNDJSONLines(stdout, func(line []byte) error {
		if !json.Valid(line) {
			return fmt.Errorf("invalid JSON stream event (%d bytes)", len(line))
		}
		ev := parseStreamEvent(line)
		if ev == nil {
			return nil
		}

		switch ev.Type {
		case "system":
			if ev.Subtype == "init" && ev.SessionID != "" {
				sessionID = ev.SessionID
			}
		case "content_block_delta":
			text.WriteString(ev.Text)
		case "assistant":
			// Full message is authoritative over the deltas seen so far.
			text.Reset()
			text.WriteString(ev.Text)
		case "result":
			if ev.IsError {
				return fmt.Errorf("claude returned error: %s", ev.Result)
			}
			result := ev.Result
			if result == "" {
				result = text.String()
			}
			last = &Response{Result: result, SessionID: ev.SessionID, CostUSD: ev.CostUSD, Usage: ev.Usage}
		}

		if onEvent != nil {
			return onEvent(*ev)
		}
		return nil
	})
	if streamErr != nil {
		cancel()
		_ = cmd.Wait()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read claude stream: %w", streamErr)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stderrMsg := stderrBuf.String(); stderrMsg != "" {
			return nil, fmt.Errorf("claude command failed: %w\nstderr: %s", err, stderrMsg)
		}
		return nil, fmt.Errorf("claude command failed: %w", err)
	}

	if last == nil {
		last = &Response{Result: text.String()}
	}
	if last.SessionID == "" {
		last.SessionID = sessionID
	}
	return last, nil
}

// parseStreamEvent parses a single NDJSON line from stream-json output.
// Tool-use and other event shapes are ignored.
func parseStreamEvent(line []byte) *StreamEvent {
	var raw struct {
		Type      string  `json:"type"`
		Subtype   string  `json:"subtype"`
		SessionID string  `json:"session_id"`
		Result    string  `json:"result"`
		CostUSD   float64 `json:"total_cost_usd"`
		IsError   bool    `json:"is_error"`
		Usage     Usage   `json:"usage"`

		// type: "assistant", message.content[]
		Message struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`

		// type: "stream_event" (--include-partial-messages)
		Event struct {
			Type  string `json:"type"`
			Delta struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"delta"`
		} `json:"event"`
	}

	if err := json.Unmarshal(line, &raw); err != nil {
		return nil
	}

	ev := &StreamEvent{
		Type:      raw.Type,
		Subtype:   raw.Subtype,
		SessionID: raw.SessionID,
		Result:    raw.Result,
		CostUSD:   raw.CostUSD,
		IsError:   raw.IsError,
		Usage:     raw.Usage,
	}

	switch raw.Type {
	case "stream_event":
		if raw.Event.Type == "content_block_delta" && raw.Event.Delta.Type == "text_delta" && raw.Event.Delta.Text != "" {
			ev.Type = "content_block_delta"
			ev.Text = raw.Event.Delta.Text
			return ev
		}
	case "assistant":
		var sb strings.Builder
		for _, c := range raw.Message.Content {
			if c.Type == "text" {
				sb.WriteString(c.Text)
			}
		}
		if sb.Len() > 0 {
			ev.Text = sb.String()
			return ev
		}
	case "result", "system":
		return ev
	}
	return nil
}

// filterEnv returns env with the named variable removed.
func filterEnv(env []string, name string) []string {
	prefix := name + "="
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
