// Package install renders installation runbooks for generated tools.
package install

import (
	"fmt"
	"strings"

	"github.com/moasq/toolfactory/internal/tool"
)

// Step is one titled shell snippet.
type Step struct {
	Title string `json:"title"`
	Shell string `json:"shell,omitempty"`
	Note  string `json:"note,omitempty"`
}

// Runbook is the structured form of the installation instructions.
type Runbook struct {
	Title         string    `json:"title"`
	Kind          tool.Kind `json:"kind"`
	Prerequisites []Step    `json:"prerequisites"`
	Install       []Step    `json:"install"`
	Verify        []Step    `json:"verify"`
	Uninstall     Step      `json:"uninstall"`
	Config        string    `json:"config,omitempty"`
}

// Build returns the runbook for t.
func Build(t tool.Tool) (*Runbook, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot build install instructions for nil tool")
	}
	b := t.Common()
	if !tool.IsKebab(b.Slug) {
		return nil, fmt.Errorf("slug %q is not kebab-case; fix it before installing", b.Slug)
	}
	if m, ok := t.(*tool.MCPServer); ok {
		for _, e := range m.EnvVars {
			if !tool.IsEnvName(e.Name) {
				return nil, fmt.Errorf("env var name %q is not a valid shell identifier", e.Name)
			}
		}
	}
	rb := tool.Match(t, skillRunbook, commandRunbook, agentRunbook, mcpRunbook)
	rb.Title = fmt.Sprintf("Install %s", b.Name)
	rb.Kind = t.Kind()
	return rb, nil
}

// Instructions renders the full human-readable runbook as Markdown.
func Instructions(t tool.Tool) (string, error) {
	rb, err := Build(t)
	if err != nil {
		return "", err
	}
	return rb.Markdown(), nil
}

// QuickInstall renders the install steps as one copy-pasteable shell snippet.
func QuickInstall(t tool.Tool) (string, error) {
	rb, err := Build(t)
	if err != nil {
		return "", err
	}
	return rb.Quick(), nil
}

// Markdown renders every section of the runbook.
func (r *Runbook) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	writeSection(&sb, "Prerequisites", r.Prerequisites)
	writeSection(&sb, "Install", r.Install)
	if r.Config != "" {
		sb.WriteString("## Project configuration\n\nTo share the server with a project, add this to `.mcp.json`:\n\n")
		fmt.Fprintf(&sb, "```json\n%s\n```\n\n", r.Config)
	}
	writeSection(&sb, "Verify", r.Verify)
	writeSection(&sb, "Uninstall", []Step{r.Uninstall})
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// Quick renders only the install commands.
func (r *Runbook) Quick() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s (%s)\n", r.Title, r.Kind.Label())
	for _, s := range r.Install {
		if s.Shell == "" {
			continue
		}
		sb.WriteString(s.Shell)
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, steps []Step) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for i, s := range steps {
		if len(steps) > 1 {
			fmt.Fprintf(sb, "%d. %s\n\n", i+1, s.Title)
		} else {
			fmt.Fprintf(sb, "%s\n\n", s.Title)
		}
		if s.Shell != "" {
			fmt.Fprintf(sb, "```bash\n%s\n```\n\n", s.Shell)
		}
		if s.Note != "" {
			fmt.Fprintf(sb, "%s\n\n", s.Note)
		}
	}
}

const heredocDelimiter = "TOOLFACTORY_EOF"

// heredoc writes body to path with a quoted delimiter so the shell expands
// nothing inside it.
func heredoc(op, path, body string) string {
	delim := heredocDelimiter
	for i := 1; strings.Contains(body, delim); i++ {
		delim = fmt.Sprintf("%s_%d", heredocDelimiter, i)
	}
	body = strings.TrimRight(body, "\n")
	return fmt.Sprintf("cat %s %s <<'%s'\n%s\n%s", op, path, delim, body, delim)
}

// shellQuote single-quotes s for POSIX shells.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("@%+=:,./-_", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func document(b *tool.Base) string {
	if strings.TrimSpace(b.RawContent) != "" {
		return b.RawContent
	}
	return b.Content
}

func claudeCodePrereq() Step {
	return Step{
		Title: "Claude Code is installed",
		Shell: "command -v claude >/dev/null && claude --version",
	}
}

func commandPrereq(name string) Step {
	return Step{
		Title: fmt.Sprintf("`%s` is on your PATH", name),
		Shell: fmt.Sprintf("command -v %s >/dev/null || echo %s", shellQuote(name), shellQuote(name+" is not installed")),
	}
}
