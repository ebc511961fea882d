package install

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moasq/toolfactory/internal/tool"
)

func base(slug string) tool.Base {
	return tool.Base{
		Name:        "Example Tool",
		Slug:        slug,
		Description: "An example tool used in tests",
		Tags:        []string{"example"},
		Content:     "## Overview\n\nDoes a thing.\n",
		RawContent:  "---\nname: Example Tool\n---\n## Overview\n\nDoes a thing.\n",
	}
}

func TestSkillInstructions(t *testing.T) {
	s := &tool.Skill{Base: base("pdf-risks"), Triggers: []string{"summarize this contract"}}
	md, err := Instructions(s)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "# Install Example Tool\n"))
	for _, section := range []string{"## Prerequisites", "## Install", "## Verify", "## Uninstall"} {
		assert.Contains(t, md, section)
	}
	assert.Contains(t, md, `"$HOME/.claude/skills/pdf-risks/SKILL.md" <<'TOOLFACTORY_EOF'`)
	assert.Contains(t, md, s.RawContent)
	assert.Contains(t, md, `rm -rf "$HOME/.claude/skills/pdf-risks"`)
	assert.Contains(t, md, "> summarize this contract")
}

func TestHeredocDelimiterAvoidsBody(t *testing.T) {
	out := heredoc(">", "f", "line\nTOOLFACTORY_EOF\n")
	assert.True(t, strings.HasSuffix(out, "\nTOOLFACTORY_EOF_1"))
}

func TestAgentInstructions(t *testing.T) {
	a := &tool.Agent{
		Base:          base("release-captain"),
		ToolsRequired: []string{"Read", "Bash"},
		Coordination:  &tool.Coordination{ReportsTo: "eng-lead", CollaboratesWith: []string{"qa-bot"}},
	}
	md, err := Instructions(a)
	require.NoError(t, err)
	assert.Contains(t, md, `"$HOME/.claude/agents/release-captain.md"`)
	assert.Contains(t, md, "Read, Bash")
	assert.Contains(t, md, "eng-lead, qa-bot")
}

func TestCommandForms(t *testing.T) {
	t.Run("alias", func(t *testing.T) {
		c := &tool.Command{Base: base("git-last"), Command: "git log -1 --stat", Prerequisites: []string{"git >= 2.30"}}
		rb, err := Build(c)
		require.NoError(t, err)
		assert.Contains(t, rb.Quick(), "alias git-last='git log -1 --stat'")
		require.Len(t, rb.Prerequisites, 1)
		assert.Contains(t, rb.Prerequisites[0].Shell, "command -v git ")
		assert.Contains(t, rb.Uninstall.Shell, "unalias git-last")
	})

	t.Run("function", func(t *testing.T) {
		c := &tool.Command{
			Base:    base("squash-commits"),
			Command: `git reset --soft HEAD~$COUNT && git commit -m "$MESSAGE" && echo "$HOME"`,
		}
		rb, err := Build(c)
		require.NoError(t, err)
		q := rb.Quick()
		assert.Contains(t, q, "squash_commits() {")
		assert.Contains(t, q, `local COUNT="${1:?usage: squash_commits COUNT MESSAGE}"`)
		assert.Contains(t, q, `local MESSAGE="${2:?`)
		assert.NotContains(t, q, "local HOME")
		assert.Contains(t, rb.Uninstall.Shell, "unset -f squash_commits")
	})

	t.Run("script", func(t *testing.T) {
		c := &tool.Command{Base: base("clean-build"), Command: "rm -rf build\nmake all"}
		rb, err := Build(c)
		require.NoError(t, err)
		q := rb.Quick()
		assert.Contains(t, q, `"$HOME/.local/bin/clean-build"`)
		assert.Contains(t, q, "#!/usr/bin/env bash")
		assert.Contains(t, q, `chmod +x "$HOME/.local/bin/clean-build"`)
	})
}

func TestCommandArgsOrderAndDedup(t *testing.T) {
	assert.Equal(t, []string{"SRC", "DST"}, commandArgs(`cp ${SRC} $DST && ls $SRC $PATH`))
}

func TestMCPStdioPython(t *testing.T) {
	m := &tool.MCPServer{
		Base:         base("weather"),
		Transport:    tool.TransportStdio,
		Language:     tool.LanguagePython,
		Tools:        []tool.MCPTool{{Name: "get_forecast"}},
		Dependencies: []string{"mcp>=1.2", "httpx"},
		EnvVars:      []tool.EnvVar{{Name: "WEATHER_API_KEY", Required: true}},
	}
	rb, err := Build(m)
	require.NoError(t, err)
	q := rb.Quick()
	assert.Contains(t, q, "python3 -m venv .venv")
	assert.Contains(t, q, ".venv/bin/pip install 'mcp>=1.2' httpx")
	assert.Contains(t, q, `claude mcp add weather -e WEATHER_API_KEY="$WEATHER_API_KEY" -- `)
	assert.Contains(t, rb.Uninstall.Shell, "claude mcp remove weather")

	var cfg struct {
		MCPServers map[string]mcpLaunch `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal([]byte(rb.Config), &cfg))
	require.Contains(t, cfg.MCPServers, "weather")
	assert.Equal(t, "${WEATHER_API_KEY}", cfg.MCPServers["weather"].Env["WEATHER_API_KEY"])
	assert.Contains(t, rb.Markdown(), "get_forecast")
}

func TestMCPHTTPTypeScript(t *testing.T) {
	m := &tool.MCPServer{
		Base:         base("issue-tracker"),
		Transport:    tool.TransportHTTP,
		Language:     tool.LanguageTypeScript,
		Dependencies: []string{"@modelcontextprotocol/sdk"},
	}
	rb, err := Build(m)
	require.NoError(t, err)
	q := rb.Quick()
	assert.Contains(t, q, "npm install @modelcontextprotocol/sdk")
	assert.Contains(t, q, "claude mcp add --transport http issue-tracker "+DefaultHTTPURL)
	assert.Contains(t, rb.Config, `"type": "http"`)
}

func TestBuildRejectsBadSlug(t *testing.T) {
	_, err := Build(&tool.Skill{Base: base("Not Kebab")})
	assert.Error(t, err)
	_, err = QuickInstall(nil)
	assert.Error(t, err)
}

func TestBuildRejectsUnsafeEnvName(t *testing.T) {
	m := &tool.MCPServer{
		Base:         base("weather"),
		Transport:    tool.TransportStdio,
		Language:     tool.LanguagePython,
		Tools:        []tool.MCPTool{{Name: "get_forecast"}},
		Dependencies: []string{"mcp>=1.2"},
		EnvVars:      []tool.EnvVar{{Name: "X=1; touch /tmp/pwn; #"}},
	}
	rb, err := Build(m)
	require.Error(t, err)
	assert.Nil(t, rb)
	assert.Contains(t, err.Error(), "not a valid shell identifier")

	_, err = QuickInstall(m)
	assert.Error(t, err)
	_, err = Instructions(m)
	assert.Error(t, err)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "plain-word", shellQuote("plain-word"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))
}
