package verify

import (
	"fmt"
	"strings"

	"github.com/moasq/toolfactory/internal/tool"
)

// Fix is a proposed correction. Fixes are never applied implicitly.
type Fix struct {
	Field    string `json:"field"`
	Original string `json:"original"`
	Fixed    string `json:"fixed"`
}

const (
	FieldSlug        = "slug"
	FieldDescription = "description"
)

// AutoFix proposes corrections for non-kebab or over-long slugs and
// over-long descriptions. Descriptions are measured trimmed, as quality does.
// Nothing else is auto-fixable.
func AutoFix(t tool.Tool) []Fix {
	if t == nil {
		return nil
	}
	b := t.Common()
	var fixes []Fix

	if b.Slug != "" && (!tool.IsKebab(b.Slug) || len(b.Slug) > maxSlugChars) {
		if fixed := tool.Slugify(b.Slug); fixed != "" && fixed != b.Slug {
			fixes = append(fixes, Fix{Field: FieldSlug, Original: b.Slug, Fixed: fixed})
		}
	} else if b.Slug == "" {
		if fixed := tool.Slugify(b.Name); fixed != "" {
			fixes = append(fixes, Fix{Field: FieldSlug, Original: b.Slug, Fixed: fixed})
		}
	}

	if r := []rune(strings.TrimSpace(b.Description)); len(r) > maxDescriptionChars {
		fixes = append(fixes, Fix{
			Field:    FieldDescription,
			Original: b.Description,
			Fixed:    string(r[:maxDescriptionChars-3]) + "...",
		})
	}
	return fixes
}

// ApplyFixes returns a copy of t with the accepted fixes applied.
func ApplyFixes(t tool.Tool, fixes []Fix) (tool.Tool, error) {
	out, err := tool.Clone(t)
	if err != nil {
		return nil, fmt.Errorf("failed to copy tool: %w", err)
	}
	b := out.Common()
	for _, f := range fixes {
		switch strings.ToLower(f.Field) {
		case FieldSlug:
			b.Slug = f.Fixed
		case FieldDescription:
			b.Description = f.Fixed
		default:
			return nil, fmt.Errorf("field %q is not auto-fixable", f.Field)
		}
	}
	return out, nil
}
