package parser

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SetFields returns raw with the given top-level frontmatter keys set to
// string values, appending keys that are absent. The body is kept as is;
// the frontmatter is re-encoded, so comments survive but spacing may not.
func SetFields(raw string, fields map[string]string, order ...string) (string, error) {
	fm, body, ok := splitFrontmatter(normalize(raw))
	if !ok {
		return "", fmt.Errorf("%w: missing or unterminated --- frontmatter block", ErrUnparseable)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(fm), &doc); err != nil {
		return "", fmt.Errorf("%w: invalid frontmatter: %v", ErrUnparseable, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return "", fmt.Errorf("%w: frontmatter is not a mapping", ErrUnparseable)
	}
	m := doc.Content[0]

	keys := order
	if len(keys) == 0 {
		for k := range fields {
			keys = append(keys, k)
		}
	}
	for _, key := range keys {
		value, ok := fields[key]
		if !ok {
			continue
		}
		setMappingValue(m, key, value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	return "---\n" + buf.String() + "---\n\n" + body, nil
}

func setMappingValue(m *yaml.Node, key, value string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			v := m.Content[i+1]
			v.Kind, v.Tag, v.Value, v.Style, v.Content = yaml.ScalarNode, "!!str", value, 0, nil
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
