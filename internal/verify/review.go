package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/moasq/toolfactory/internal/tool"
)

// Reviewer is the extension point for a second-pass critique. Suggestions are
// advisory: the review check always passes and keeps its flat weight.
type Reviewer interface {
	Review(ctx context.Context, t tool.Tool) ([]string, error)
}

// NoopReviewer makes no suggestions.
type NoopReviewer struct{}

func (NoopReviewer) Review(context.Context, tool.Tool) ([]string, error) { return nil, nil }

func review(ctx context.Context, r Reviewer, t tool.Tool) Check {
	c := newCheck(nil)
	if r == nil || t == nil {
		return c
	}
	suggestions, err := r.Review(ctx, t)
	if err != nil {
		c.Suggestions = []string{fmt.Sprintf("self-review unavailable: %v", err)}
		return c
	}
	c.Suggestions = suggestions
	return c
}

// Completer streams a completion for a system and user prompt.
type Completer interface {
	Stream(ctx context.Context, system, user string, onDelta func(string) error) error
}

const maxSuggestions = 5

const reviewSystemPrompt = `You review Claude Code tool definitions written as YAML frontmatter plus Markdown.
Reply with at most 5 concrete improvements, one per line, each starting with "- ".
Do not rewrite the document. Reply with "- none" when nothing needs improving.`

// LLMReviewer asks a model to critique the generated document.
type LLMReviewer struct {
	Completer Completer
}

func (r LLMReviewer) Review(ctx context.Context, t tool.Tool) ([]string, error) {
	if r.Completer == nil {
		return nil, fmt.Errorf("no model configured for self-review")
	}
	b := t.Common()
	doc := b.RawContent
	if doc == "" {
		doc = b.Content
	}
	user := fmt.Sprintf("Review this Claude Code %s:\n\n%s", t.Kind().Label(), doc)

	var sb strings.Builder
	err := r.Completer.Stream(ctx, reviewSystemPrompt, user, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run self-review: %w", err)
	}
	return parseSuggestions(sb.String()), nil
}

func parseSuggestions(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		s, ok := strings.CutPrefix(line, "- ")
		if !ok {
			s, ok = strings.CutPrefix(line, "* ")
		}
		s = strings.TrimSpace(s)
		if !ok || s == "" || strings.EqualFold(s, "none") {
			continue
		}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
