package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moasq/toolfactory/internal/tool"
)

// stringList accepts a YAML list or a single comma-separated string, since
// models switch between the two.
type stringList []string

func (l *stringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = splitList(n.Value)
		return nil
	case yaml.SequenceNode:
		var out []string
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a string list item", item.Line)
			}
			if v := strings.TrimSpace(item.Value); v != "" {
				out = append(out, v)
			}
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a list or a comma-separated string", n.Line)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// paramList accepts plain strings or {name, type, description} mappings and
// renders both as "name (type): description".
type paramList []string

func (l *paramList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		var s stringList
		if err := s.UnmarshalYAML(n); err != nil {
			return err
		}
		*l = paramList(s)
		return nil
	}
	var out []string
	for _, item := range n.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, strings.TrimSpace(item.Value))
		case yaml.MappingNode:
			var p struct {
				Name        string `yaml:"name"`
				Type        string `yaml:"type"`
				Description string `yaml:"description"`
			}
			if err := item.Decode(&p); err != nil {
				return err
			}
			s := p.Name
			if p.Type != "" {
				s += " (" + p.Type + ")"
			}
			if p.Description != "" {
				s += ": " + p.Description
			}
			out = append(out, s)
		default:
			return fmt.Errorf("line %d: unsupported parameter entry", item.Line)
		}
	}
	*l = out
	return nil
}

type commonFields struct {
	Type        string     `yaml:"type"`
	Name        string     `yaml:"name"`
	Slug        string     `yaml:"slug"`
	Description string     `yaml:"description"`
	Category    string     `yaml:"category"`
	Tags        stringList `yaml:"tags"`
}

func (c commonFields) base(body, doc string) tool.Base {
	slug := strings.TrimSpace(c.Slug)
	if slug == "" {
		slug = tool.Slugify(c.Name)
	}
	tags := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		tags = append(tags, strings.ToLower(t))
	}
	return tool.Base{
		Name:        strings.TrimSpace(c.Name),
		Slug:        slug,
		Description: strings.TrimSpace(c.Description),
		Tags:        tags,
		Category:    strings.TrimSpace(c.Category),
		Content:     body,
		RawContent:  doc,
	}
}

type skillFields struct {
	commonFields `yaml:",inline"`
	Complexity   string     `yaml:"complexity"`
	Triggers     stringList `yaml:"triggers"`
}

type commandFields struct {
	commonFields  `yaml:",inline"`
	Command       string         `yaml:"command"`
	Prerequisites stringList     `yaml:"prerequisites"`
	Variants      []tool.Variant `yaml:"variants"`
}

type agentFields struct {
	commonFields  `yaml:",inline"`
	Persona       string     `yaml:"persona"`
	Capabilities  stringList `yaml:"capabilities"`
	Triggers      stringList `yaml:"triggers"`
	ToolsRequired stringList `yaml:"tools_required"`
	Tools         stringList `yaml:"tools"`
	Coordination  *struct {
		ReportsTo        string     `yaml:"reports_to"`
		CollaboratesWith stringList `yaml:"collaborates_with"`
	} `yaml:"coordination"`
}

type mcpFields struct {
	commonFields `yaml:",inline"`
	Transport    string `yaml:"transport"`
	Language     string `yaml:"language"`
	SDKVersion   string `yaml:"sdk_version"`
	Tools        []struct {
		Name        string    `yaml:"name"`
		Description string    `yaml:"description"`
		Parameters  paramList `yaml:"parameters"`
	} `yaml:"tools"`
	Resources    stringList    `yaml:"resources"`
	Dependencies stringList    `yaml:"dependencies"`
	EnvVars      []tool.EnvVar `yaml:"env_vars"`
}

// splitFrontmatter separates the YAML block from the Markdown body. The text
// must open with a --- line and the block must be closed by another.
func splitFrontmatter(text string) (fm, body string, ok bool) {
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimRight(first, " \t") != "---" {
		return "", "", false
	}
	offset := 0
	for {
		line, after, more := strings.Cut(rest[offset:], "\n")
		if strings.TrimRight(line, " \t") == "---" {
			return rest[:offset], strings.TrimLeft(after, "\n"), true
		}
		if !more {
			return "", "", false
		}
		offset += len(line) + 1
	}
}

// stripFence removes a code fence wrapping the whole document.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	_, rest, found := strings.Cut(text, "\n")
	if !found {
		return text
	}
	rest = strings.TrimRight(rest, " \t\n")
	if strings.HasSuffix(rest, "```") {
		rest = strings.TrimRight(strings.TrimSuffix(rest, "```"), " \t\n")
	}
	return rest + "\n"
}

// normalize prepares model output for frontmatter splitting.
func normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.TrimSpace(text)
	text = stripFence(text)
	return strings.TrimSpace(text) + "\n"
}
