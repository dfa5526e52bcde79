package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/idscan/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP extraction API",
	Long: `Start an HTTP server exposing the extraction pipeline.

Endpoints:
  POST /extract     - extract fields from an uploaded image or PDF
  POST /verify      - verify extracted fields against reference data
  POST /quality     - image quality report and gate decision
  GET  /health      - health check
  GET  /engines     - registered OCR engines
  GET  /metrics     - Prometheus metrics
  GET  /ws/extract  - WebSocket extraction with progress updates

Examples:
  idscan serve
  idscan serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "host to bind (default from config)")
	serveCmd.Flags().Int("port", 0, "port to listen on (default from config)")
	serveCmd.Flags().String("cors-origin", "", "CORS allowed origin (default from config)")
	serveCmd.Flags().Int("max-upload-mb", 0, "maximum upload size in MB (default from config)")
	serveCmd.Flags().Int("rate-limit", -1, "requests per minute per client, 0 disables (default from config)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("cors-origin") {
		cfg.Server.CORSOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	if cmd.Flags().Changed("max-upload-mb") {
		cfg.Server.MaxUploadMB, _ = cmd.Flags().GetInt("max-upload-mb")
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.Server.RateLimitPerMin, _ = cmd.Flags().GetInt("rate-limit")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", cfg.Server.Port)
	}

	logger := slog.Default()
	pl, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(pl, cfg.Server, logger)
	defer func() { _ = srv.Close() }()

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
