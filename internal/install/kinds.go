package install

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/moasq/toolfactory/internal/tool"
)

func skillRunbook(s *tool.Skill) *Runbook {
	dir := fmt.Sprintf(`"$HOME/.claude/skills/%s"`, s.Slug)
	file := fmt.Sprintf(`"$HOME/.claude/skills/%s/SKILL.md"`, s.Slug)
	rb := &Runbook{
		Prerequisites: []Step{claudeCodePrereq()},
		Install: []Step{
			{Title: "Create the skill directory", Shell: "mkdir -p " + dir},
			{Title: "Write SKILL.md", Shell: heredoc(">", file, document(&s.Base))},
		},
		Verify: []Step{
			{Title: "Check the file is in place", Shell: "ls -l " + file},
		},
		Uninstall: Step{Title: "Remove the skill directory", Shell: "rm -rf " + dir},
	}
	if len(s.Triggers) > 0 {
		rb.Verify = append(rb.Verify, Step{
			Title: "Start a new Claude Code session and try a trigger phrase",
			Note:  fmt.Sprintf("> %s", s.Triggers[0]),
		})
	}
	return rb
}

func agentRunbook(a *tool.Agent) *Runbook {
	file := fmt.Sprintf(`"$HOME/.claude/agents/%s.md"`, a.Slug)
	rb := &Runbook{
		Prerequisites: []Step{claudeCodePrereq()},
		Install: []Step{
			{Title: "Create the agents directory", Shell: `mkdir -p "$HOME/.claude/agents"`},
			{Title: "Write the agent definition", Shell: heredoc(">", file, document(&a.Base))},
		},
		Verify: []Step{
			{Title: "Check the file is in place", Shell: "ls -l " + file},
			{Title: "Run /agents in Claude Code and confirm it is listed", Note: fmt.Sprintf("Look for `%s`.", a.Slug)},
		},
		Uninstall: Step{Title: "Delete the agent definition", Shell: "rm -f " + file},
	}
	if len(a.ToolsRequired) > 0 {
		rb.Prerequisites = append(rb.Prerequisites, Step{
			Title: "The agent uses these Claude Code tools",
			Note:  strings.Join(a.ToolsRequired, ", "),
		})
	}
	if c := a.Coordination; c != nil && (c.ReportsTo != "" || len(c.CollaboratesWith) > 0) {
		var peers []string
		if c.ReportsTo != "" {
			peers = append(peers, c.ReportsTo)
		}
		peers = append(peers, c.CollaboratesWith...)
		rb.Prerequisites = append(rb.Prerequisites, Step{
			Title: "Install the agents it coordinates with",
			Note:  strings.Join(peers, ", "),
		})
	}
	return rb
}

var placeholderVar = regexp.MustCompile(`\$\{?([A-Z][A-Z0-9_]*)\}?`)

// Environment variables that are never treated as command arguments.
var ambientVars = []string{"HOME", "PATH", "PWD", "USER", "SHELL", "TMPDIR", "EDITOR"}

// commandArgs returns the placeholder variables of cmd in order of first use.
func commandArgs(cmd string) []string {
	var out []string
	for _, m := range placeholderVar.FindAllStringSubmatch(cmd, -1) {
		name := m[1]
		if slices.Contains(ambientVars, name) || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func prereqName(p string) string {
	f := strings.Fields(p)
	if len(f) == 0 {
		return ""
	}
	return strings.TrimRight(f[0], ",:;")
}

// commandRunbook picks the lightest form that fits: an alias for a fixed
// one-liner, a function when it takes placeholders, a script otherwise.
func commandRunbook(c *tool.Command) *Runbook {
	rb := &Runbook{}
	for _, p := range c.Prerequisites {
		if name := prereqName(p); name != "" {
			rb.Prerequisites = append(rb.Prerequisites, commandPrereq(name))
		}
	}

	cmd := strings.TrimSpace(c.Command)
	args := commandArgs(cmd)
	rc := `RC="$HOME/.$(basename "$SHELL")rc"`
	begin := fmt.Sprintf("# >>> toolfactory %s >>>", c.Slug)
	end := fmt.Sprintf("# <<< toolfactory %s <<<", c.Slug)
	removeBlock := fmt.Sprintf("%s\nsed -i.bak '/%s/,/%s/d' \"$RC\"", rc, begin, end)

	switch {
	case strings.Contains(cmd, "\n"):
		path := fmt.Sprintf(`"$HOME/.local/bin/%s"`, c.Slug)
		script := "#!/usr/bin/env bash\nset -euo pipefail\n\n"
		for i, a := range args {
			script += fmt.Sprintf("%s=\"${%d:?usage: %s %s}\"\n", a, i+1, c.Slug, strings.Join(args, " "))
		}
		script += cmd
		rb.Install = []Step{
			{Title: "Create ~/.local/bin", Shell: `mkdir -p "$HOME/.local/bin"`},
			{Title: "Write the script", Shell: heredoc(">", path, script)},
			{Title: "Make it executable", Shell: "chmod +x " + path},
		}
		rb.Verify = []Step{{
			Title: "Confirm it resolves on your PATH",
			Shell: "command -v " + c.Slug,
			Note:  "If nothing prints, add `$HOME/.local/bin` to PATH.",
		}}
		rb.Uninstall = Step{Title: "Delete the script", Shell: "rm -f " + path}

	case len(args) > 0:
		fn := strings.ReplaceAll(c.Slug, "-", "_")
		var body strings.Builder
		fmt.Fprintf(&body, "%s\n%s() {\n", begin, fn)
		for i, a := range args {
			fmt.Fprintf(&body, "  local %s=\"${%d:?usage: %s %s}\"\n", a, i+1, fn, strings.Join(args, " "))
		}
		fmt.Fprintf(&body, "  %s\n}\n%s", cmd, end)
		rb.Install = []Step{
			{Title: "Append the function to your shell rc file", Shell: rc + "\n" + heredoc(">>", `"$RC"`, body.String())},
			{Title: "Reload your shell", Shell: `source "$RC"`},
		}
		rb.Verify = []Step{{
			Title: "Confirm the function is defined",
			Shell: "type " + fn,
			Note:  fmt.Sprintf("Usage: `%s %s`", fn, strings.Join(args, " ")),
		}}
		rb.Uninstall = Step{Title: "Remove the function block and unset it", Shell: removeBlock + "\nunset -f " + fn}

	default:
		body := fmt.Sprintf("%s\nalias %s=%s\n%s", begin, c.Slug, shellQuote(cmd), end)
		rb.Install = []Step{
			{Title: "Append the alias to your shell rc file", Shell: rc + "\n" + heredoc(">>", `"$RC"`, body)},
			{Title: "Reload your shell", Shell: `source "$RC"`},
		}
		rb.Verify = []Step{{Title: "Confirm the alias is defined", Shell: "alias " + c.Slug}}
		rb.Uninstall = Step{Title: "Remove the alias block and unalias it", Shell: removeBlock + "\nunalias " + c.Slug}
	}

	if len(c.Variants) > 0 {
		var lines []string
		for _, v := range c.Variants {
			line := fmt.Sprintf("- **%s**: `%s`", v.Name, v.Command)
			if v.Description != "" {
				line += " " + v.Description
			}
			lines = append(lines, line)
		}
		rb.Verify = append(rb.Verify, Step{Title: "Variants you can run directly", Note: strings.Join(lines, "\n")})
	}
	return rb
}

type mcpLaunch struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	URL     string            `json:"url,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// DefaultHTTPURL is where http-transport servers are expected to listen.
const DefaultHTTPURL = "http://localhost:3000/mcp"

func mcpRunbook(m *tool.MCPServer) *Runbook {
	dir := fmt.Sprintf(`"$HOME/.claude/mcp-servers/%s"`, m.Slug)
	rb := &Runbook{Prerequisites: []Step{claudeCodePrereq()}}

	deps := make([]string, 0, len(m.Dependencies))
	for _, d := range m.Dependencies {
		deps = append(deps, shellQuote(d))
	}

	var setup []string
	launch := mcpLaunch{}
	switch m.Language {
	case tool.LanguagePython:
		rb.Prerequisites = append(rb.Prerequisites, Step{Title: "Python 3.10 or newer", Shell: "python3 --version"})
		setup = []string{"python3 -m venv .venv"}
		if len(deps) > 0 {
			setup = append(setup, ".venv/bin/pip install "+strings.Join(deps, " "))
		}
		launch.Command = fmt.Sprintf("~/.claude/mcp-servers/%s/.venv/bin/python", m.Slug)
		launch.Args = []string{fmt.Sprintf("~/.claude/mcp-servers/%s/server.py", m.Slug)}
	default:
		rb.Prerequisites = append(rb.Prerequisites, Step{Title: "Node.js 18 or newer with npm", Shell: "node --version && npm --version"})
		setup = []string{"npm init -y >/dev/null"}
		if len(deps) > 0 {
			setup = append(setup, "npm install "+strings.Join(deps, " "))
		}
		launch.Command = "node"
		launch.Args = []string{fmt.Sprintf("~/.claude/mcp-servers/%s/build/index.js", m.Slug)}
	}

	var envFlags []string
	if len(m.EnvVars) > 0 {
		launch.Env = map[string]string{}
		var lines []string
		for _, e := range m.EnvVars {
			req := "optional"
			if e.Required {
				req = "required"
			}
			lines = append(lines, fmt.Sprintf("- `%s` (%s): %s", e.Name, req, e.Description))
			launch.Env[e.Name] = "${" + e.Name + "}"
			envFlags = append(envFlags, fmt.Sprintf("-e %s=\"$%s\"", e.Name, e.Name))
		}
		rb.Prerequisites = append(rb.Prerequisites, Step{
			Title: "Export the environment variables the server reads",
			Note:  strings.Join(lines, "\n"),
		})
	}

	impl := "src/index.ts (compiled to build/index.js)"
	if m.Language == tool.LanguagePython {
		impl = "server.py"
	}
	rb.Install = []Step{
		{Title: "Create the server directory", Shell: "mkdir -p " + dir + " && cd " + dir},
		{Title: "Install dependencies", Shell: strings.Join(setup, "\n")},
		{Title: "Save the server specification", Shell: heredoc(">", "README.md", document(&m.Base))},
		{Title: "Implement the server", Note: fmt.Sprintf("Implement the tools described in README.md in %s.", impl)},
	}

	var register string
	if m.Transport == tool.TransportHTTP {
		register = fmt.Sprintf("claude mcp add --transport http %s %s", m.Slug, DefaultHTTPURL)
		launch = mcpLaunch{Type: "http", URL: DefaultHTTPURL}
	} else {
		parts := []string{"claude mcp add", m.Slug}
		parts = append(parts, envFlags...)
		parts = append(parts, "--", launch.Command)
		parts = append(parts, launch.Args...)
		register = strings.Join(parts, " ")
	}
	rb.Install = append(rb.Install, Step{Title: "Register the server with Claude Code", Shell: register})

	cfg, _ := json.MarshalIndent(map[string]any{
		"mcpServers": map[string]mcpLaunch{m.Slug: launch},
	}, "", "  ")
	rb.Config = string(cfg)

	rb.Verify = []Step{{Title: "Check the server is registered and connects", Shell: "claude mcp get " + m.Slug}}
	if len(m.Tools) > 0 {
		var names []string
		for _, t := range m.Tools {
			names = append(names, t.Name)
		}
		rb.Verify = append(rb.Verify, Step{
			Title: "Run /mcp in Claude Code and confirm the tools are listed",
			Note:  strings.Join(names, ", "),
		})
	}
	rb.Uninstall = Step{
		Title: "Unregister the server and delete its directory",
		Shell: fmt.Sprintf("claude mcp remove %s\nrm -rf %s", m.Slug, dir),
	}
	return rb
}
