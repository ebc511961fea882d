package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/moasq/toolfactory/internal/tool"
)

type placeholder struct {
	name string
	re   *regexp.Regexp
	// skipLinks ignores matches directly followed by "(", i.e. Markdown link text.
	skipLinks bool
}

// Only the first match is reported; one placeholder usually means many.
var placeholders = []placeholder{
	{"bracketed placeholder", regexp.MustCompile(`(?i)\[\s*(your|insert|add|replace|enter|fill in|placeholder)\b[^\]\n]*\]`), true},
	{"angle placeholder", regexp.MustCompile(`(?i)<\s*(your|insert|replace|enter|placeholder)[\w\s-]*>`), false},
	{"TODO marker", regexp.MustCompile(`\bTODO\b`), false},
	{"FIXME marker", regexp.MustCompile(`\bFIXME\b`), false},
	{"lorem ipsum", regexp.MustCompile(`(?i)lorem ipsum`), false},
	{"XXX marker", regexp.MustCompile(`\b[xX]{3,}\b`), false},
	{"trailing ellipsis", regexp.MustCompile(`(\.\.\.|…)\s*\z`), false},
}

const (
	repetitionMinLines    = 20
	repetitionLineChars   = 20
	repetitionMinDistinct = 0.7
)

func qualityIssues(t tool.Tool) []string {
	if t == nil {
		return []string{"tool is missing"}
	}
	b := t.Common()
	var issues []string

	text := b.RawContent
	if strings.TrimSpace(text) == "" {
		text = b.Content
	}
	if issue := findPlaceholder(text); issue != "" {
		issues = append(issues, issue)
	}

	desc := strings.TrimSpace(b.Description)
	if n := charCount(desc); n > maxDescriptionChars {
		issues = append(issues, fmt.Sprintf("description exceeds %d characters (%d)", maxDescriptionChars, n))
	}
	if strings.HasSuffix(desc, "...") || strings.HasSuffix(desc, "…") {
		issues = append(issues, "description ends with an ellipsis")
	}

	content := strings.TrimSpace(b.Content)
	if n := charCount(content); n < minQualityContent {
		issues = append(issues, fmt.Sprintf("content is too short (%d characters, want at least %d)", n, minQualityContent))
	}
	if repetitive(content) {
		issues = append(issues, "content is highly repetitive")
	}
	return issues
}

func findPlaceholder(text string) string {
	for _, p := range placeholders {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if p.skipLinks && loc[1] < len(text) && text[loc[1]] == '(' {
				continue
			}
			return fmt.Sprintf("content contains placeholder text (%s): %q", p.name, strings.TrimSpace(text[loc[0]:loc[1]]))
		}
	}
	return ""
}

// repetitive reports whether more than repetitionMinLines substantial lines
// exist and fewer than 70% of them are distinct.
func repetitive(content string) bool {
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); charCount(l) > repetitionLineChars {
			lines = append(lines, l)
		}
	}
	if len(lines) <= repetitionMinLines {
		return false
	}
	distinct := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		distinct[l] = struct{}{}
	}
	return float64(len(distinct))/float64(len(lines)) < repetitionMinDistinct
}
