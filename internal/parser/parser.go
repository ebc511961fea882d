// Package parser turns raw model output (YAML frontmatter + Markdown body)
// into a typed tool record.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/moasq/toolfactory/internal/tool"
)

// ErrUnparseable is wrapped by every Parse failure.
var ErrUnparseable = errors.New("could not parse generated content")

var markdown = goldmark.New()

// Parse converts raw into a record of the given kind. It never returns a
// partially populated record: either every required field decoded or the
// error wraps ErrUnparseable.
func Parse(kind tool.Kind, raw string) (tool.Tool, error) {
	rec, err := tool.New(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	doc := normalize(raw)
	fm, body, ok := splitFrontmatter(doc)
	if !ok {
		return nil, fmt.Errorf("%w: missing or unterminated --- frontmatter block", ErrUnparseable)
	}

	var common commonFields
	err = tool.Match(rec,
		func(s *tool.Skill) error {
			var f skillFields
			if err := decode(fm, &f); err != nil {
				return err
			}
			common = f.commonFields
			s.Base = f.base(body, doc)
			s.Complexity = strings.TrimSpace(f.Complexity)
			s.Triggers = f.Triggers
			return nil
		},
		func(c *tool.Command) error {
			var f commandFields
			if err := decode(fm, &f); err != nil {
				return err
			}
			common = f.commonFields
			c.Base = f.base(body, doc)
			c.Command = strings.TrimSpace(f.Command)
			c.Prerequisites = f.Prerequisites
			c.Variants = f.Variants
			return nil
		},
		func(a *tool.Agent) error {
			var f agentFields
			if err := decode(fm, &f); err != nil {
				return err
			}
			common = f.commonFields
			a.Base = f.base(body, doc)
			a.Persona = strings.TrimSpace(f.Persona)
			a.Capabilities = f.Capabilities
			a.Triggers = f.Triggers
			a.ToolsRequired = f.ToolsRequired
			if len(a.ToolsRequired) == 0 {
				a.ToolsRequired = f.Tools
			}
			if f.Coordination != nil {
				a.Coordination = &tool.Coordination{
					ReportsTo:        strings.TrimSpace(f.Coordination.ReportsTo),
					CollaboratesWith: f.Coordination.CollaboratesWith,
				}
				if a.Coordination.CollaboratesWith == nil {
					a.Coordination.CollaboratesWith = []string{}
				}
			}
			return nil
		},
		func(m *tool.MCPServer) error {
			var f mcpFields
			if err := decode(fm, &f); err != nil {
				return err
			}
			common = f.commonFields
			m.Base = f.base(body, doc)
			m.Transport = strings.ToLower(strings.TrimSpace(f.Transport))
			m.Language = strings.ToLower(strings.TrimSpace(f.Language))
			m.SDKVersion = strings.TrimSpace(f.SDKVersion)
			for _, t := range f.Tools {
				m.Tools = append(m.Tools, tool.MCPTool{
					Name:        strings.TrimSpace(t.Name),
					Description: strings.TrimSpace(t.Description),
					Parameters:  t.Parameters,
				})
			}
			m.Resources = f.Resources
			m.Dependencies = f.Dependencies
			m.EnvVars = f.EnvVars
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var missing []string
	if strings.TrimSpace(common.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(common.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required field(s) %s", ErrUnparseable, strings.Join(missing, ", "))
	}
	if t := strings.TrimSpace(common.Type); t != "" {
		if declared, err := tool.ParseKind(t); err == nil && declared != kind {
			return nil, fmt.Errorf("%w: content declares type %s, expected %s", ErrUnparseable, declared, kind)
		}
	}

	rec.Common().Sections = Sections(rec.Common().Content)
	return rec, nil
}

func decode(fm string, out any) error {
	if err := yaml.Unmarshal([]byte(fm), out); err != nil {
		return fmt.Errorf("invalid frontmatter: %w", err)
	}
	return nil
}

// ParseDetect parses raw as kind, or as the detected kind when kind is empty.
func ParseDetect(kind tool.Kind, raw string) (tool.Tool, error) {
	if kind == "" {
		k, err := DetectKind(raw)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	return Parse(kind, raw)
}

// DetectKind infers the kind of a raw document: an explicit "type" key wins,
// otherwise distinctive fields decide, falling back to skill.
func DetectKind(raw string) (tool.Kind, error) {
	fm, _, ok := splitFrontmatter(normalize(raw))
	if !ok {
		return "", fmt.Errorf("%w: missing or unterminated --- frontmatter block", ErrUnparseable)
	}
	var keys map[string]any
	if err := yaml.Unmarshal([]byte(fm), &keys); err != nil {
		return "", fmt.Errorf("%w: invalid frontmatter: %v", ErrUnparseable, err)
	}
	if t, ok := keys["type"].(string); ok {
		if k, err := tool.ParseKind(t); err == nil {
			return k, nil
		}
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := keys[n]; ok {
				return true
			}
		}
		return false
	}
	switch {
	case has("transport", "sdk_version", "env_vars"):
		return tool.KindMCP, nil
	case has("command", "prerequisites", "variants"):
		return tool.KindCommand, nil
	case has("persona", "tools_required", "coordination", "capabilities"):
		return tool.KindAgent, nil
	}
	return tool.KindSkill, nil
}

// Sections returns the text of every level-2 heading in body, in order.
func Sections(body string) []string {
	src := []byte(body)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 2 {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		collectText(h, src, &buf)
		if s := strings.TrimSpace(buf.String()); s != "" {
			out = append(out, s)
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

func collectText(n ast.Node, src []byte, buf *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		collectText(c, src, buf)
	}
}
