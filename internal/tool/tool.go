// Package tool defines the records produced by a generation session: one
// concrete type per Kind behind the Tool interface.
package tool

// Tool is a parsed, generated artifact. The concrete type is one of *Skill,
// *Command, *Agent or *MCPServer; use Match to branch on it.
type Tool interface {
	Kind() Kind
	Common() *Base
}

// Base holds the fields every kind shares.
type Base struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Content     string   `json:"content"`
	// RawContent is the whole document, frontmatter included, with any
	// wrapping code fence and CRLF line endings removed. Install and export
	// write it verbatim.
	RawContent  string   `json:"rawContent"`
	Sections    []string `json:"sections,omitempty"`
}

// Common returns the shared fields.
func (b *Base) Common() *Base { return b }

// Skill is a Markdown capability triggered by natural-language phrases.
type Skill struct {
	Base
	Complexity string   `json:"complexity"`
	Triggers   []string `json:"triggers"`
}

func (*Skill) Kind() Kind { return KindSkill }

// Command is a shell command template with $VAR placeholders.
type Command struct {
	Base
	Command       string    `json:"command"`
	Prerequisites []string  `json:"prerequisites"`
	Variants      []Variant `json:"variants"`
}

func (*Command) Kind() Kind { return KindCommand }

// Variant is an alternative form of a command.
type Variant struct {
	Name        string `json:"name" yaml:"name"`
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description" yaml:"description"`
}

// Agent is a persona-driven workflow with tool dependencies and coordination links.
type Agent struct {
	Base
	Persona       string        `json:"persona"`
	Capabilities  []string      `json:"capabilities"`
	Triggers      []string      `json:"triggers"`
	ToolsRequired []string      `json:"tools_required"`
	Coordination  *Coordination `json:"coordination,omitempty"`
}

func (*Agent) Kind() Kind { return KindAgent }

// Coordination links an agent to its parent and peers by slug.
type Coordination struct {
	ReportsTo        string   `json:"reports_to,omitempty" yaml:"reports_to"`
	CollaboratesWith []string `json:"collaborates_with" yaml:"collaborates_with"`
}

// MCPServer describes a Model Context Protocol server to scaffold.
type MCPServer struct {
	Base
	Transport    string    `json:"transport"`
	Language     string    `json:"language"`
	SDKVersion   string    `json:"sdk_version"`
	Tools        []MCPTool `json:"tools"`
	Resources    []string  `json:"resources"`
	Dependencies []string  `json:"dependencies"`
	EnvVars      []EnvVar  `json:"env_vars"`
}

func (*MCPServer) Kind() Kind { return KindMCP }

// MCPTool is one tool exposed by a generated MCP server.
type MCPTool struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Parameters  []string `json:"parameters" yaml:"parameters"`
}

// EnvVar is an environment variable a generated MCP server reads.
type EnvVar struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// Match dispatches t to the handler for its concrete type. Every variant
// needs a handler, so a new kind fails to compile at each call site until it
// is handled. A nil or foreign Tool yields the zero value of R.
func Match[R any](t Tool,
	skill func(*Skill) R,
	command func(*Command) R,
	agent func(*Agent) R,
	mcp func(*MCPServer) R,
) R {
	switch v := t.(type) {
	case *Skill:
		return skill(v)
	case *Command:
		return command(v)
	case *Agent:
		return agent(v)
	case *MCPServer:
		return mcp(v)
	}
	var zero R
	return zero
}

// New returns an empty record of the given kind.
func New(k Kind) (Tool, error) {
	switch k {
	case KindSkill:
		return &Skill{}, nil
	case KindCommand:
		return &Command{}, nil
	case KindAgent:
		return &Agent{}, nil
	case KindMCP:
		return &MCPServer{}, nil
	}
	_, err := ParseKind(string(k))
	return nil, err
}
