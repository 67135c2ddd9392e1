package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/flowlab-edu/flowlab"
	"github.com/flowlab-edu/flowlab/internal/metrics"
	"github.com/flowlab-edu/flowlab/internal/presentation/tui"
	httpadapter "github.com/flowlab-edu/flowlab/pkg/adapters/http"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the classroom web server",
	Long: `Starts the Flowlab studio as an HTTP server: a browser editor for
students plus a JSON API with SSE session updates and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := createLogger(cmd, cfg)

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		m := metrics.New(prometheus.DefaultRegisterer)
		studio, err := buildStudio(cfg, logger, flowlab.WithLifecycleHooks(m.Hooks()))
		if err != nil {
			return err
		}

		tui.PrintBanner()

		server := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: httpadapter.NewHandler(studio, logger),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Flowlab server listening", "addr", cfg.Server.Addr)
			serverErrors <- server.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			logger.Info("Shutdown signal received, shutting down server...")
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}
