package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/novagestion/asesoria-server/internal/api"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the chat router exposing POST ` + api.ChatPath + `, /health and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.HTTPAddr
		if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
			addr = flagAddr
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewHandler(a.runner, a.metrics, a.registry),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logx.Info().
				Str("addr", srv.Addr).
				Str("environment", a.cfg.Environment.String()).
				Msg("Starting HTTP server")
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			logx.Info().Str("signal", sig.String()).Msg("Start shutdown")

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logx.Error().Err(err).Dur("timeout", a.cfg.ShutdownTimeout).Msg("Graceful shutdown did not complete")
				if err := srv.Close(); err != nil {
					logx.Error().Err(err).Msg("Error killing server")
				}
			}
			logx.Info().Msg("Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, overrides HTTP_ADDR")
}
