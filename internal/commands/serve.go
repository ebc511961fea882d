package commands

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/moasq/toolfactory/internal/server"
	"github.com/moasq/toolfactory/internal/terminal"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generate and save endpoints over HTTP",
	Long: `Runs the tool factory HTTP API: POST /api/tool-factory/generate streams a
generation, POST /api/tool-factory/save stores a tool, and verify, install
and /api/tools endpoints expose the rest of the pipeline. Other toolfactory
instances can point --endpoint at this server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Endpoint != "" {
			return fmt.Errorf("serve generates locally; unset --endpoint (%s)", cfg.Endpoint)
		}
		gen, err := newGenerator()
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		addr := cfg.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := server.New(gen, store,
			server.WithVerifier(newVerifier()),
			server.WithLogger(logger),
		)
		return srv.ListenAndServe(cmd.Context(), addr, func(a net.Addr) {
			terminal.Success(fmt.Sprintf("Listening on http://%s (store: %s)", a, cfg.Store))
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8787)")
}
