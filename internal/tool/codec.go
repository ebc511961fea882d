package tool

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Marshal encodes t as a flat JSON object with a "toolType" discriminator,
// the shape the save endpoint accepts.
func Marshal(t Tool) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot marshal nil tool")
	}
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", t.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(t.Kind())
	fields["toolType"] = kind
	return json.Marshal(fields)
}

// Unmarshal decodes the flat JSON object produced by Marshal.
func Unmarshal(data []byte) (Tool, error) {
	var head struct {
		ToolType string `json:"toolType"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid tool payload: %w", err)
	}
	kind, err := ParseKind(head.ToolType)
	if err != nil {
		return nil, err
	}
	t, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
	}
	return t, nil
}

// Clone returns a deep copy of t.
func Clone(t Tool) (Tool, error) {
	data, err := Marshal(t)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// MaxSlugLength is the longest slug verification accepts.
const MaxSlugLength = 50

var kebabRE = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
var nonAlnumRunRE = regexp.MustCompile(`[^a-z0-9]+`)
var envNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsKebab reports whether s is a kebab-case slug.
func IsKebab(s string) bool {
	return kebabRE.MatchString(s)
}

// IsEnvName reports whether s is a POSIX shell variable name.
func IsEnvName(s string) bool {
	return envNameRE.MatchString(s)
}

// Slugify lowercases s, collapses non-alphanumeric runs to one hyphen and
// trims hyphens from both ends. Results longer than MaxSlugLength are cut
// at the last hyphen that fits, or hard at the limit when there is none.
func Slugify(s string) string {
	s = nonAlnumRunRE.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if len(s) <= MaxSlugLength {
		return s
	}
	cut := s[:MaxSlugLength]
	if s[MaxSlugLength] != '-' {
		if i := strings.LastIndexByte(cut, '-'); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.Trim(cut, "-")
}
