package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/bookmatch/internal/app"
	"github.com/hyperifyio/bookmatch/internal/llm"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and recommendations over HTTP",
		Long: `Serve exposes the catalog at /api/books and, when a model endpoint or key is
configured, recommendations at /api/recommendations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, app.OpServe)
			if err != nil {
				return err
			}
			defer a.Close()
			cfg := a.Config()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var client llm.Client
			if strings.TrimSpace(cfg.LLMBaseURL) != "" || strings.TrimSpace(cfg.LLMAPIKey) != "" {
				p := a.ModelClient()
				a.Preflight(ctx, p)
				client = p
			} else {
				log.Warn().Msg("no model endpoint configured; recommendations disabled")
			}
			h, closeResults, err := a.Handler(ctx, client)
			if err != nil {
				return err
			}
			defer closeResults()

			srv := &http.Server{Addr: cfg.ServeAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			log.Info().Str("addr", cfg.ServeAddr).Msg("listening")

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			log.Info().Msg("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	addLLMFlags(cmd)
	f := cmd.Flags()
	f.String("addr", app.DefaultServeAddr, "Listen address")
	f.String("results.db", "", "SQLite file for recommendation results (default: in memory)")
	return cmd
}
