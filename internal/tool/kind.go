package tool

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies which Claude Code artifact a generation session produces.
type Kind string

const (
	KindSkill   Kind = "skill"
	KindCommand Kind = "command"
	KindAgent   Kind = "agent"
	KindMCP     Kind = "mcp"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindSkill, KindCommand, KindAgent, KindMCP}

// ParseKind converts user input to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Kinds, k) {
		return "", fmt.Errorf("unknown tool type %q (want one of skill, command, agent, mcp)", s)
	}
	return k, nil
}

// Label returns the human-readable name used in messages ("MCP server", "skill", ...).
func (k Kind) Label() string {
	if k == KindMCP {
		return "MCP server"
	}
	return string(k)
}

// Complexity levels for skills.
const (
	ComplexitySimple     = "simple"
	ComplexityComplex    = "complex"
	ComplexityMultiAgent = "multi-agent"
)

// MCP transports and implementation languages.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	LanguageTypeScript = "typescript"
	LanguagePython     = "python"
)

// Vocabularies accepted by verification.
var (
	Complexities = []string{ComplexitySimple, ComplexityComplex, ComplexityMultiAgent}
	Transports   = []string{TransportStdio, TransportHTTP}
	Languages    = []string{LanguageTypeScript, LanguagePython}
)

var categories = map[Kind][]string{
	KindSkill: {
		"document-creation", "code-generation", "data-analysis", "research",
		"writing", "automation", "design", "productivity",
	},
	KindCommand: {
		"git", "testing", "deployment", "database",
		"docker", "file-operations", "debugging", "code-quality",
	},
	KindAgent: {
		"development", "testing", "code-review", "documentation",
		"devops", "research", "orchestration", "security",
	},
	KindMCP: {
		"database", "api-integration", "file-system", "developer-tools",
		"productivity", "data-analysis", "communication", "cloud",
	},
}

// Categories returns the closed category vocabulary for a kind.
func Categories(k Kind) []string {
	return slices.Clone(categories[k])
}

// IsCategory reports whether category belongs to the kind's vocabulary.
func IsCategory(k Kind, category string) bool {
	return slices.Contains(categories[k], category)
}

// MCP SDK package names per implementation language.
const (
	MCPSDKTypeScript = "@modelcontextprotocol/sdk"
	MCPSDKPython     = "mcp"
)

// HasMCPSDK reports whether deps contain the MCP SDK package. Version suffixes
// ("mcp>=1.2", "@modelcontextprotocol/sdk@^1.0.0") are accepted.
func HasMCPSDK(deps []string) bool {
	for _, d := range deps {
		d = strings.ToLower(strings.TrimSpace(d))
		if strings.Contains(d, "modelcontextprotocol") {
			return true
		}
		name := strings.FieldsFunc(d, func(r rune) bool {
			return strings.ContainsRune("<>=~![ ", r)
		})
		if len(name) > 0 && name[0] == MCPSDKPython {
			return true
		}
	}
	return false
}
