package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/generation"
	"github.com/moasq/toolfactory/internal/install"
	"github.com/moasq/toolfactory/internal/parser"
	"github.com/moasq/toolfactory/internal/prompts"
	"github.com/moasq/toolfactory/internal/tool"
	"github.com/moasq/toolfactory/internal/verify"
)

// documentInput carries a raw generated document.
type documentInput struct {
	Content  string `json:"content" jsonschema:"The full generated document: YAML frontmatter between --- lines followed by the Markdown body"`
	ToolType string `json:"tool_type,omitempty" jsonschema:"One of skill, command, agent, mcp. Detected from the frontmatter when empty"`
}

func (in documentInput) parse() (tool.Tool, error) {
	var kind tool.Kind
	if strings.TrimSpace(in.ToolType) != "" {
		k, err := tool.ParseKind(in.ToolType)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	return parser.ParseDetect(kind, in.Content)
}

type verifyOutput struct {
	ToolType string        `json:"tool_type"`
	Slug     string        `json:"slug"`
	Result   verify.Result `json:"result"`
	Fixes    []verify.Fix  `json:"fixes"`
}

func (s *Server) verifyDocument(ctx context.Context, t tool.Tool) verifyOutput {
	fixes := verify.AutoFix(t)
	if fixes == nil {
		fixes = []verify.Fix{}
	}
	return verifyOutput{
		ToolType: string(t.Kind()),
		Slug:     t.Common().Slug,
		Result:   s.verifier.Verify(ctx, t),
		Fixes:    fixes,
	}
}

func (s *Server) handleVerify(ctx context.Context, req *mcp.CallToolRequest, input documentInput) (*mcp.CallToolResult, verifyOutput, error) {
	t, err := input.parse()
	if err != nil {
		return nil, verifyOutput{}, err
	}
	return nil, s.verifyDocument(ctx, t), nil
}

type installInput struct {
	Content  string `json:"content" jsonschema:"The full generated document"`
	ToolType string `json:"tool_type,omitempty" jsonschema:"One of skill, command, agent, mcp. Detected when empty"`
	Quick    bool   `json:"quick,omitempty" jsonschema:"Return only the install commands"`
}

type installOutput struct {
	Instructions string `json:"instructions"`
}

func (s *Server) handleInstall(ctx context.Context, req *mcp.CallToolRequest, input installInput) (*mcp.CallToolResult, installOutput, error) {
	t, err := documentInput{Content: input.Content, ToolType: input.ToolType}.parse()
	if err != nil {
		return nil, installOutput{}, err
	}
	render := install.Instructions
	if input.Quick {
		render = install.QuickInstall
	}
	text, err := render(t)
	if err != nil {
		return nil, installOutput{}, err
	}
	return nil, installOutput{Instructions: text}, nil
}

// requestInput describes a generation request.
type requestInput struct {
	ToolType    string `json:"tool_type" jsonschema:"One of skill, command, agent, mcp"`
	Description string `json:"description" jsonschema:"What the tool should do, at least 10 characters"`
	Category    string `json:"category,omitempty" jsonschema:"Preferred category for the tool type"`
	Complexity  string `json:"complexity,omitempty" jsonschema:"Skills only: simple, complex or multi-agent"`
	Persona     string `json:"persona,omitempty" jsonschema:"Agents only: the persona to adopt"`
	Transport   string `json:"transport,omitempty" jsonschema:"MCP servers only: stdio or http"`
	Language    string `json:"language,omitempty" jsonschema:"MCP servers only: typescript or python"`
}

func (in requestInput) request() (generation.Request, error) {
	kind, err := tool.ParseKind(in.ToolType)
	if err != nil {
		return generation.Request{}, err
	}
	req := generation.NewRequest(kind, in.Description, prompts.Hints{
		Category:   in.Category,
		Complexity: in.Complexity,
		Persona:    in.Persona,
		Transport:  in.Transport,
		Language:   in.Language,
	})
	if err := req.Validate(); err != nil {
		return generation.Request{}, err
	}
	return req, nil
}

type promptOutput struct {
	System string `json:"system"`
	User   string `json:"user"`
}

func (s *Server) handleBuildPrompt(ctx context.Context, req *mcp.CallToolRequest, input requestInput) (*mcp.CallToolResult, promptOutput, error) {
	r, err := input.request()
	if err != nil {
		return nil, promptOutput{}, err
	}
	p, err := prompts.Build(r.ToolType, r.Description, r.Hints())
	if err != nil {
		return nil, promptOutput{}, err
	}
	return nil, promptOutput{System: p.System, User: p.User}, nil
}

type generateOutput struct {
	Content string `json:"content"`
	// Verification is absent when the document could not be parsed.
	Verification *verifyOutput `json:"verification,omitempty"`
	ParseError   string        `json:"parse_error,omitempty"`
}

func (s *Server) handleGenerate(ctx context.Context, req *mcp.CallToolRequest, input requestInput) (*mcp.CallToolResult, generateOutput, error) {
	if s.gen == nil {
		return nil, generateOutput{}, fmt.Errorf("no generation backend configured: set a provider or endpoint")
	}
	r, err := input.request()
	if err != nil {
		return nil, generateOutput{}, err
	}

	var sb strings.Builder
	if err := s.gen.Stream(ctx, r, func(chunk string) { sb.WriteString(chunk) }); err != nil {
		s.logger.Warn("mcp generation failed", zap.String("kind", string(r.ToolType)), zap.Error(err))
		return nil, generateOutput{}, err
	}
	out := generateOutput{Content: sb.String()}
	t, err := parser.Parse(r.ToolType, out.Content)
	if err != nil {
		out.ParseError = err.Error()
		return nil, out, nil
	}
	v := s.verifyDocument(ctx, t)
	out.Verification = &v
	return nil, out, nil
}
