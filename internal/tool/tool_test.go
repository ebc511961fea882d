package tool

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(" " + string(k) + " ")
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("MCP")
	require.NoError(t, err)
	assert.Equal(t, KindMCP, got)

	_, err = ParseKind("plugin")
	assert.Error(t, err)
}

func TestMatchCoversEveryKind(t *testing.T) {
	for _, k := range Kinds {
		rec, err := New(k)
		require.NoError(t, err)
		got := Match(rec,
			func(*Skill) Kind { return KindSkill },
			func(*Command) Kind { return KindCommand },
			func(*Agent) Kind { return KindAgent },
			func(*MCPServer) Kind { return KindMCP },
		)
		assert.Equal(t, k, got)
		assert.Equal(t, k, rec.Kind())
	}
}

func TestMatchNilReturnsZero(t *testing.T) {
	got := Match(nil,
		func(*Skill) int { return 1 },
		func(*Command) int { return 2 },
		func(*Agent) int { return 3 },
		func(*MCPServer) int { return 4 },
	)
	assert.Zero(t, got)
}

func TestMarshalAddsToolTypeAndFlattensBase(t *testing.T) {
	a := &Agent{
		Base:         Base{Name: "Reviewer", Slug: "reviewer", Tags: []string{"review"}},
		Persona:      "A meticulous senior reviewer",
		Coordination: &Coordination{ReportsTo: "lead", CollaboratesWith: []string{"tester"}},
	}
	data, err := Marshal(a)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "agent", fields["toolType"])
	assert.Equal(t, "reviewer", fields["slug"])
	assert.Contains(t, fields, "coordination")

	back, err := Unmarshal(data)
	require.NoError(t, err)
	got, ok := back.(*Agent)
	require.True(t, ok)
	assert.Equal(t, "lead", got.Coordination.ReportsTo)
	assert.Equal(t, a.Persona, got.Persona)
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	_, err := Unmarshal([]byte(`{"toolType":"widget","name":"x"}`))
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	s := &Skill{Base: Base{Tags: []string{"pdf"}}, Triggers: []string{"a", "b"}}
	c, err := Clone(s)
	require.NoError(t, err)
	c.(*Skill).Triggers[0] = "changed"
	c.Common().Tags[0] = "changed"
	assert.Equal(t, "a", s.Triggers[0])
	assert.Equal(t, "pdf", s.Tags[0])
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"PDF Contract Summarizer": "pdf-contract-summarizer",
		"--Hello__World--":        "hello-world",
		"already-kebab":           "already-kebab",
		"API v2 / Client!!":       "api-v2-client",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
		assert.True(t, IsKebab(Slugify(in)), in)
	}
	assert.False(t, IsKebab("Not_Kebab"))
	assert.False(t, IsKebab("double--hyphen"))
}

func TestSlugifyCapsLength(t *testing.T) {
	long := Slugify("Summarize every clause of a long commercial contract into a ranked list of risks")
	assert.LessOrEqual(t, len(long), MaxSlugLength)
	assert.True(t, IsKebab(long))
	assert.Equal(t, "summarize-every-clause-of-a-long-commercial", long, "cut on a word boundary")

	unbroken := Slugify(strings.Repeat("a", 70))
	assert.Len(t, unbroken, MaxSlugLength)
}

func TestIsEnvName(t *testing.T) {
	for _, ok := range []string{"API_KEY", "_private", "x1"} {
		assert.True(t, IsEnvName(ok), ok)
	}
	for _, bad := range []string{"", "1ABC", "X=1; touch /tmp/pwn; #", "WITH-DASH", "A B", "$HOME"} {
		assert.False(t, IsEnvName(bad), bad)
	}
}

func TestHasMCPSDK(t *testing.T) {
	assert.True(t, HasMCPSDK([]string{"zod", "@modelcontextprotocol/sdk@^1.0.0"}))
	assert.True(t, HasMCPSDK([]string{"httpx", "mcp>=1.2"}))
	assert.True(t, HasMCPSDK([]string{"mcp[cli]"}))
	assert.False(t, HasMCPSDK([]string{"axios"}))
	assert.False(t, HasMCPSDK([]string{"mcpx"}))
}

func TestCategoriesAreClosed(t *testing.T) {
	assert.True(t, IsCategory(KindSkill, "document-creation"))
	assert.False(t, IsCategory(KindCommand, "document-creation"))
	cats := Categories(KindAgent)
	cats[0] = "mutated"
	assert.True(t, IsCategory(KindAgent, "development"))
}
