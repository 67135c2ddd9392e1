package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/flowlab-edu/flowlab"
	"github.com/flowlab-edu/flowlab/internal/config"
	"github.com/flowlab-edu/flowlab/internal/logging"
	fileadapter "github.com/flowlab-edu/flowlab/pkg/adapters/file"
	"github.com/flowlab-edu/flowlab/pkg/adapters/kroki"
	redisadapter "github.com/flowlab-edu/flowlab/pkg/adapters/redis"
	"github.com/flowlab-edu/flowlab/pkg/ports"
)

// loadConfig reads the config file named by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// createLogger builds the CLI logger honoring --debug and the config level.
func createLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return logging.New(slog.LevelDebug)
	}
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return logging.New(level)
}

// buildStudio assembles a Studio from the configuration: renderer, store and
// locker per the chosen backend.
func buildStudio(cfg *config.Config, logger *slog.Logger, extra ...flowlab.Option) (*flowlab.Studio, error) {
	krokiOpts := []kroki.Option{kroki.WithLogger(logger)}
	if cfg.Renderer.Endpoint != "" {
		krokiOpts = append(krokiOpts, kroki.WithEndpoint(cfg.Renderer.Endpoint))
	}
	if cfg.Renderer.Fallback != "" {
		krokiOpts = append(krokiOpts, kroki.WithFallback(cfg.Renderer.Fallback))
	}
	if cfg.Renderer.Scale > 0 {
		krokiOpts = append(krokiOpts, kroki.WithScale(cfg.Renderer.Scale))
	}
	if cfg.Renderer.Timeout > 0 {
		krokiOpts = append(krokiOpts, kroki.WithHTTPClient(&http.Client{Timeout: cfg.Renderer.Timeout.Std()}))
	}
	client := kroki.New(krokiOpts...)

	opts := []flowlab.Option{
		flowlab.WithRenderer(client),
		flowlab.WithExporter(client),
		flowlab.WithLogger(logger),
	}
	if cfg.HistoryLimit > 0 {
		opts = append(opts, flowlab.WithHistoryLimit(cfg.HistoryLimit))
	}

	store, locker, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, flowlab.WithStore(store))
	}
	if locker != nil {
		opts = append(opts, flowlab.WithLocker(locker))
	}

	return flowlab.New(append(opts, extra...)...)
}

func buildStore(cfg *config.Config) (ports.SessionStore, ports.DistributedLocker, error) {
	switch cfg.Store.Backend {
	case "memory":
		return nil, nil, nil // Studio default
	case "file":
		return fileadapter.New(cfg.Store.Dir), nil, nil
	case "redis":
		storeOpts := []redisadapter.Option{}
		if cfg.Store.TTL > 0 {
			storeOpts = append(storeOpts, redisadapter.WithTTL(cfg.Store.TTL.Std()))
		}
		store := redisadapter.New(cfg.Store.Addr, cfg.Store.Password, cfg.Store.DB, storeOpts...)
		locker := redisadapter.NewLocker(store.Client(), "flowlab:lock:")
		return store, locker, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
