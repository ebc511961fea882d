// Package mcpserver exposes the tool factory to MCP clients over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/generation"
	"github.com/moasq/toolfactory/internal/verify"
)

// Version is reported to MCP clients.
var Version = "v1.0.0"

// Server holds the collaborators the tool handlers need. gen may be nil, in
// which case generate_tool reports that no backend is configured.
type Server struct {
	gen      generation.Generator
	verifier *verify.Verifier
	logger   *zap.Logger
}

// New returns a server. A nil verifier means the default pipeline.
func New(gen generation.Generator, verifier *verify.Verifier, logger *zap.Logger) *Server {
	if verifier == nil {
		verifier = verify.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{gen: gen, verifier: verifier, logger: logger}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "toolfactory",
			Version: Version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "verify_tool",
		Description: "Verify a generated Claude Code skill, command, agent or MCP server document (YAML frontmatter plus Markdown body). Returns passed, a 0-100 score, per-check issues and suggested auto-fixes. tool_type is detected from the frontmatter when omitted.",
	}, s.handleVerify)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "install_instructions",
		Description: "Produce a shell runbook that installs a generated tool document: prerequisites, install commands, verification and uninstall. Set quick for the condensed clipboard form.",
	}, s.handleInstall)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_prompt",
		Description: "Return the system and user prompts the factory would send to a model for a tool type and description. Use this to generate with your own model, then pass the result to verify_tool.",
	}, s.handleBuildPrompt)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_tool",
		Description: "Generate a tool document with the configured model backend and verify it. Returns the raw document and the verification result.",
	}, s.handleGenerate)

	return server
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}
