// =============================================================================
// Receipt Normalizer - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   receipts serve [--addr :8080]
//
// Serves the HTTP API until interrupted, then shuts down gracefully. The
// strict, redact and enforce_redaction settings become per-request defaults;
// cors_allowed_origins and http_rate_limit configure the middleware.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/receipt-normalizer/internal/httpapi"
)

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 10 * time.Second

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the receipt API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := listenAddr
		if addr == "" {
			addr = appConfig.HTTPAddr
		}

		srv := httpapi.New(addr, httpapi.Options{
			SchemaVersion:    appConfig.SchemaVersion,
			Strict:           appConfig.Strict,
			Redact:           appConfig.Redact,
			EnforceRedaction: appConfig.EnforceRedaction,
			AllowedOrigins:   appConfig.CORSAllowedOrigins,
			RateLimit:        appConfig.HTTPRateLimit,
			RateBurst:        appConfig.HTTPRateBurst,
		}, logger)

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "addr", srv.Addr())
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-cmd.Context().Done():
		}

		logger.Info("shutting down http server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default from http_addr)")
}
