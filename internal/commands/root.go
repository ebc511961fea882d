package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/config"
	"github.com/moasq/toolfactory/internal/logging"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	configPath   string
	providerFlag string
	modelFlag    string
	verboseFlag  bool
	endpointFlag string
	cfg          *config.Config
	logger       = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "toolfactory",
	Short: "Generate and verify Claude Code tools",
	Long: `toolfactory turns a plain-language description into a Claude Code skill,
slash command, subagent or MCP server definition, verifies it, and prints an
install runbook.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if providerFlag != "" {
			cfg.Provider = providerFlag
		}
		if modelFlag != "" {
			cfg.Model = modelFlag
		}
		if endpointFlag != "" {
			cfg.Endpoint = endpointFlag
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(verboseFlag, cmd.Name() == "serve")
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded",
			zap.String("provider", cfg.Provider),
			zap.String("store", cfg.Store),
			zap.String("endpoint", cfg.Endpoint))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.toolfactory/config.yaml)")
	pf.StringVar(&providerFlag, "provider", "", "Model backend: anthropic, openai or claude-code")
	pf.StringVar(&modelFlag, "model", "", "Model name (claude-code accepts sonnet, opus, haiku)")
	pf.StringVar(&endpointFlag, "endpoint", "", "Remote tool-factory service URL for generate and save")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")

	rootCmd.SetVersionTemplate("toolfactory {{.Version}}\n")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(versionCmd)
}
