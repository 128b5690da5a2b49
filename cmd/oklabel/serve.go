package main

import (
	"os"
	"os/signal"

	"github.com/benoitkugler/oklabel/host"
	"github.com/benoitkugler/oklabel/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the renderer over HTTP",
	Long: `Serve the renderer over HTTP:
  POST /render?format=png|pdf|html   render the markup in the request body
  POST /print                        fetch a label and print it
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		h, err := host.New(cfg, host.WithLogger(log))
		if err != nil {
			return err
		}
		renderer, err := host.NewRenderer(cfg, log)
		if err != nil {
			return err
		}
		s := server.New(renderer, h, log)

		go func() {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)
			<-sig
			log.Info("shutting down")
			if err := s.Shutdown(); err != nil {
				log.Error("shutdown", zap.Error(err))
			}
		}()
		return s.Listen(cfg.ListenAddr)
	},
}
