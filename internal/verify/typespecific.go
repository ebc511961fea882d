package verify

import (
	"fmt"
	"slices"
	"strings"

	"github.com/moasq/toolfactory/internal/tool"
)

const (
	minTriggers     = 2
	minTriggerChars = 5
	minCommandChars = 5
	minPersonaChars = 20
	minCapabilities = 2
	minMCPTools     = 1
)

func typeSpecificIssues(t tool.Tool) []string {
	if t == nil {
		return []string{"tool is missing"}
	}
	issues := tool.Match(t, skillIssues, commandIssues, agentIssues, mcpIssues)
	return append(issues, categoryIssues(t)...)
}

func categoryIssues(t tool.Tool) []string {
	c := t.Common().Category
	switch {
	case c == "":
		return []string{"category is required"}
	case !tool.IsCategory(t.Kind(), c):
		return []string{fmt.Sprintf("category %q is not a valid %s category (want one of %s)",
			c, t.Kind().Label(), strings.Join(tool.Categories(t.Kind()), ", "))}
	}
	return nil
}

func triggerIssues(triggers []string) []string {
	var issues []string
	triggers = nonEmpty(triggers)
	if len(triggers) < minTriggers {
		issues = append(issues, fmt.Sprintf("at least %d triggers are required (got %d)", minTriggers, len(triggers)))
	}
	for _, tr := range triggers {
		if charCount(strings.TrimSpace(tr)) < minTriggerChars {
			issues = append(issues, fmt.Sprintf("trigger %q is too short (min %d characters)", tr, minTriggerChars))
		}
	}
	return issues
}

func skillIssues(s *tool.Skill) []string {
	issues := triggerIssues(s.Triggers)
	if !slices.Contains(tool.Complexities, s.Complexity) {
		issues = append(issues, fmt.Sprintf("complexity must be one of %s", strings.Join(tool.Complexities, ", ")))
	}
	return issues
}

func commandIssues(c *tool.Command) []string {
	var issues []string
	cmd := strings.TrimSpace(c.Command)
	if charCount(cmd) < minCommandChars {
		issues = append(issues, fmt.Sprintf("command must be at least %d characters", minCommandChars))
	}
	// Quote parity is a heuristic: escaped quotes and apostrophes inside
	// double quotes can trip it.
	if strings.Count(cmd, "'")%2 != 0 {
		issues = append(issues, "unbalanced single quotes in command")
	}
	if strings.Count(cmd, `"`)%2 != 0 {
		issues = append(issues, "unbalanced double quotes in command")
	}
	if strings.Contains(c.Content, "VARIABLE") && !strings.Contains(cmd, "$") {
		issues = append(issues, "documentation mentions VARIABLE but the command has no $ placeholders")
	}
	if len(nonEmpty(c.Prerequisites)) == 0 {
		issues = append(issues, "prerequisites must list at least one required tool")
	}
	return issues
}

func agentIssues(a *tool.Agent) []string {
	var issues []string
	if charCount(strings.TrimSpace(a.Persona)) < minPersonaChars {
		issues = append(issues, fmt.Sprintf("persona must be at least %d characters", minPersonaChars))
	}
	if n := len(nonEmpty(a.Capabilities)); n < minCapabilities {
		issues = append(issues, fmt.Sprintf("at least %d capabilities are required (got %d)", minCapabilities, n))
	}
	issues = append(issues, triggerIssues(a.Triggers)...)
	if len(nonEmpty(a.ToolsRequired)) == 0 {
		issues = append(issues, "tools_required must list at least one tool")
	}
	if a.Coordination == nil {
		issues = append(issues, "coordination is required")
	}
	return issues
}

func mcpIssues(m *tool.MCPServer) []string {
	var issues []string
	if !slices.Contains(tool.Transports, m.Transport) {
		issues = append(issues, fmt.Sprintf("transport must be one of %s", strings.Join(tool.Transports, ", ")))
	}
	if !slices.Contains(tool.Languages, m.Language) {
		issues = append(issues, fmt.Sprintf("language must be one of %s", strings.Join(tool.Languages, ", ")))
	}
	if strings.TrimSpace(m.SDKVersion) == "" {
		issues = append(issues, "sdk_version is required")
	}
	if len(m.Tools) < minMCPTools {
		issues = append(issues, "at least one tool is required")
	}
	for i, t := range m.Tools {
		if strings.TrimSpace(t.Name) == "" {
			issues = append(issues, fmt.Sprintf("tool %d is missing a name", i+1))
			continue
		}
		if strings.TrimSpace(t.Description) == "" {
			issues = append(issues, fmt.Sprintf("tool %q is missing a description", t.Name))
		}
	}
	for _, e := range m.EnvVars {
		if !tool.IsEnvName(e.Name) {
			issues = append(issues, fmt.Sprintf("env var name %q must be a shell identifier (letters, digits, underscore)", e.Name))
		}
	}
	if !tool.HasMCPSDK(m.Dependencies) {
		issues = append(issues, fmt.Sprintf("dependencies must include the MCP SDK (%s or %s)", tool.MCPSDKTypeScript, tool.MCPSDKPython))
	}
	return issues
}
