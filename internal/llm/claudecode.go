package llm

import (
	"context"

	"github.com/moasq/toolfactory/internal/claude"
)

// ClaudeCode streams through a locally installed Claude Code CLI, reusing
// its existing login instead of an API key.
type ClaudeCode struct {
	client *claude.Client
}

// NewClaudeCode locates the CLI and returns a backend for it.
func NewClaudeCode(cfg Config) (*ClaudeCode, error) {
	path, err := claude.FindCLI(cfg.ClaudePath)
	if err != nil {
		return nil, err
	}
	return &ClaudeCode{client: claude.NewClient(path).WithModel(cfg.Model)}, nil
}

func (c *ClaudeCode) Stream(ctx context.Context, system, user string, onDelta func(string) error) error {
	streamed := false
	_, err := c.client.GenerateStreaming(ctx, user, claude.GenerateOpts{SystemPrompt: system}, func(ev claude.StreamEvent) error {
		switch ev.Type {
		case "content_block_delta":
			streamed = true
			return onDelta(ev.Text)
		case "assistant":
			// CLIs without partial messages only send the full text.
			if !streamed {
				streamed = true
				return onDelta(ev.Text)
			}
		}
		return nil
	})
	return err
}
