package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/generation"
	"github.com/moasq/toolfactory/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the tool factory as an MCP server over stdio",
	Long: `Starts an MCP server over stdio exposing verify_tool, install_instructions,
build_prompt and generate_tool. generate_tool needs a model or --endpoint;
without one the other tools still work.`,
	Example: `  claude mcp add toolfactory -- toolfactory mcp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var gen generation.Generator
		g, err := newGenerator()
		if err != nil {
			logger.Warn("generate_tool disabled", zap.Error(err))
		} else {
			gen = g
		}
		mcpserver.Version = Version
		return mcpserver.New(gen, newVerifier(), logger).Run(cmd.Context())
	},
}
