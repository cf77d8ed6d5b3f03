package main

import (
	"os/signal"
	"syscall"

	"github.com/example/go-kokoro-g2p/internal/config"
	"github.com/example/go-kokoro-g2p/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP phonemization server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if _, err := config.NormalizeLanguage(cfg.Phonemizer.DefaultLang); err != nil {
				return err
			}

			p := newPhonemizer(cfg)
			srv := server.New(cfg, p, newPipeline(cfg, p)).
				WithShutdownTimeout(cfg.Server.ShutdownTimeout)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}
}
