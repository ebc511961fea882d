// Package prompts maps a tool description and optional hints to the system
// and user prompts sent to the model.
package prompts

import (
	"fmt"
	"strings"

	"github.com/moasq/toolfactory/internal/tool"
)

// MinDescriptionLength is the shortest description callers may submit.
const MinDescriptionLength = 10

// Hints are optional, kind-specific steering values.
type Hints struct {
	Category   string `json:"category,omitempty"`
	Complexity string `json:"complexity,omitempty"`
	Persona    string `json:"persona,omitempty"`
	Transport  string `json:"transport,omitempty"`
	Language   string `json:"language,omitempty"`
}

// Prompt is a system/user prompt pair.
type Prompt struct {
	System string
	User   string
}

// Build returns the prompts for kind. It is deterministic and performs no I/O.
func Build(kind tool.Kind, description string, hints Hints) (Prompt, error) {
	system, err := SystemPrompt(kind)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, User: userPrompt(kind, description, hints)}, nil
}

// SystemPrompt returns the static system prompt for kind.
func SystemPrompt(kind tool.Kind) (string, error) {
	switch kind {
	case tool.KindSkill:
		return skillPrompt, nil
	case tool.KindCommand:
		return commandPrompt, nil
	case tool.KindAgent:
		return agentPrompt, nil
	case tool.KindMCP:
		return mcpPrompt, nil
	}
	return "", fmt.Errorf("no prompt for tool type %q", kind)
}

func userPrompt(kind tool.Kind, description string, hints Hints) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a Claude Code %s.\n\n", kind.Label())
	sb.WriteString("Description:\n")
	sb.WriteString(strings.TrimSpace(description))
	sb.WriteString("\n")

	var notes []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			notes = append(notes, fmt.Sprintf("%s: %s", label, v))
		}
	}
	add("Category", hints.Category)
	switch kind {
	case tool.KindSkill:
		add("Complexity", hints.Complexity)
	case tool.KindAgent:
		add("Persona", hints.Persona)
	case tool.KindMCP:
		add("Transport", hints.Transport)
		add("Language", hints.Language)
	}

	if len(notes) > 0 {
		sb.WriteString("\nRequirements:\n")
		for _, n := range notes {
			sb.WriteString("- ")
			sb.WriteString(n)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
