package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/transport/httpapi"
	configx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/config"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over a local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			httpCfg, err := configx.New[httpapi.Config]("HTTP")
			if err != nil {
				return err
			}
			if addr != "" {
				httpCfg.Addr = addr
			}

			a, err := wireApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			srv := httpapi.NewServer(a.orchestrator, a.catalog, a.metrics)
			return srv.Run(cmd.Context(), *httpCfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}
