package verify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/moasq/toolfactory/internal/tool"
)

const (
	minNameChars        = 2
	minSlugChars        = 3
	maxSlugChars        = tool.MaxSlugLength
	minDescriptionChars = 10
	maxDescriptionChars = 200
	minContentChars     = 100
	minQualityContent   = 300
)

func charCount(s string) int {
	return utf8.RuneCountInString(s)
}

func formatIssues(t tool.Tool) []string {
	if t == nil {
		return []string{"tool is missing"}
	}
	b := t.Common()
	var issues []string

	name := strings.TrimSpace(b.Name)
	switch {
	case name == "":
		issues = append(issues, "name is required")
	case charCount(name) < minNameChars:
		issues = append(issues, fmt.Sprintf("name must be at least %d characters", minNameChars))
	}

	switch {
	case b.Slug == "":
		issues = append(issues, "slug is required")
	case !tool.IsKebab(b.Slug):
		issues = append(issues, "slug must be kebab-case (lowercase letters, digits and single hyphens)")
	case charCount(b.Slug) < minSlugChars || charCount(b.Slug) > maxSlugChars:
		issues = append(issues, fmt.Sprintf("slug must be %d-%d characters", minSlugChars, maxSlugChars))
	}

	desc := strings.TrimSpace(b.Description)
	switch {
	case desc == "":
		issues = append(issues, "description is required")
	case charCount(desc) < minDescriptionChars:
		issues = append(issues, fmt.Sprintf("description must be at least %d characters", minDescriptionChars))
	}

	if len(nonEmpty(b.Tags)) == 0 {
		issues = append(issues, "tags must include at least one tag")
	}

	content := strings.TrimSpace(b.Content)
	switch {
	case content == "":
		issues = append(issues, "content is required")
	case charCount(content) < minContentChars:
		issues = append(issues, fmt.Sprintf("content must be at least %d characters", minContentChars))
	}
	return issues
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
