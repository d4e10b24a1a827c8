package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/atelier/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the forest event server",
	Long: `Serve the forest runtime over HTTP until interrupted.

The listen address is taken from --addr, then ATELIER_ADDR, then
services.eventServer.addr in src/tool.config.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newRuntimeApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		addr := serveAddr
		if addr == "" {
			addr = a.env.Addr
		}
		if addr == "" {
			cfg, err := a.engine.LoadToolConfig()
			if err != nil {
				return err
			}
			addr = cfg.Services.EventServer.Addr
		}

		return server.New(a.engine, a.logger).Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (host:port)")
}
