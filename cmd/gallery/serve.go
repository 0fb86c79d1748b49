package main

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

	"github.com/sagarc03/gallery/config"
	galleryhttp "github.com/sagarc03/gallery/http"
	"github.com/sagarc03/gallery/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the gallery HTTP server.

On startup the object store is initialised (for MinIO the bucket is created
if missing) and the index is rebuilt from the store in the background.
Until that finishes, API responses carry X-Index-Status: recovering and
GET /readyz answers 503.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 3000, "HTTP server port (env: GALLERY_SERVER_PORT)")
	serveCmd.Flags().Int64("max-upload", 0, "maximum upload size in bytes, 0 for no limit (env: GALLERY_SERVER_MAX_UPLOAD_SIZE)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	service, store, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Init(ctx); err != nil {
		// Listing and search still work from the index; uploads will fail
		// until the store is reachable.
		slog.Error("object store init failed", "err", err)
	}

	recovered := service.StartRecovery(ctx)
	go func() {
		select {
		case <-recovered:
			slog.Info("index ready")
		case <-ctx.Done():
		}
	}()

	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Static:        web.Static(),
	}, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Type, "index", cfg.Index.Type)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
