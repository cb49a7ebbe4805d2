package main

import (
	"github.com/spf13/cobra"

	"github.com/menta2k/ph-analyzer/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the /predict HTTP endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, err := buildAnalyzer(cfg, nil)
		if err != nil {
			return err
		}

		srv, err := server.NewServer(
			server.WithLogger(logger),
			server.WithConfig(cfg.Server),
			server.WithAnalyzer(analyzer),
		)
		if err != nil {
			return err
		}

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return srv.Run(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides config, default :5000)")
	rootCmd.AddCommand(serveCmd)
}
