package prompts

import (
	"strings"
	"testing"

	"github.com/moasq/toolfactory/internal/tool"
)

func TestBuildEveryKindHasFrontmatterGrammar(t *testing.T) {
	for _, k := range tool.Kinds {
		p, err := Build(k, "Summarize pull requests for reviewers", Hints{})
		if err != nil {
			t.Fatalf("Build(%s) error = %v", k, err)
		}
		if !strings.Contains(p.System, "Line 1 MUST be ---") {
			t.Errorf("%s system prompt missing output contract", k)
		}
		if !strings.Contains(p.System, "SELF-CHECK") {
			t.Errorf("%s system prompt missing self-check list", k)
		}
		for _, cat := range tool.Categories(k) {
			if !strings.Contains(p.System, cat) {
				t.Errorf("%s system prompt does not list category %q", k, cat)
			}
		}
		if !strings.Contains(p.User, "Summarize pull requests for reviewers") {
			t.Errorf("%s user prompt missing description", k)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	h := Hints{Category: "database", Transport: "http", Language: "python"}
	a, _ := Build(tool.KindMCP, "Query Postgres read replicas safely", h)
	b, _ := Build(tool.KindMCP, "Query Postgres read replicas safely", h)
	if a != b {
		t.Fatal("Build() returned different prompts for identical input")
	}
}

func TestBuildAppendsOnlyRelevantHints(t *testing.T) {
	h := Hints{Category: "research", Complexity: "complex", Persona: "A patient tutor", Transport: "stdio"}

	skill, _ := Build(tool.KindSkill, "Explain research papers", h)
	if !strings.Contains(skill.User, "Complexity: complex") || !strings.Contains(skill.User, "Category: research") {
		t.Errorf("skill user prompt missing hints:\n%s", skill.User)
	}
	if strings.Contains(skill.User, "Persona:") || strings.Contains(skill.User, "Transport:") {
		t.Errorf("skill user prompt has unrelated hints:\n%s", skill.User)
	}

	agent, _ := Build(tool.KindAgent, "Explain research papers", h)
	if !strings.Contains(agent.User, "Persona: A patient tutor") {
		t.Errorf("agent user prompt missing persona:\n%s", agent.User)
	}
}

func TestBuildWithoutHintsHasNoRequirements(t *testing.T) {
	p, _ := Build(tool.KindCommand, "Squash the last N commits", Hints{})
	if strings.Contains(p.User, "Requirements:") {
		t.Errorf("unexpected requirements block:\n%s", p.User)
	}
}

func TestBuildUnknownKind(t *testing.T) {
	if _, err := Build(tool.Kind("plugin"), "whatever works here", Hints{}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
