package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/flowlab-edu/flowlab"
	"github.com/flowlab-edu/flowlab/internal/presentation/graph"
)

// watchCmd re-renders a .mmd file whenever it changes, for students working
// in their own editor.
var watchCmd = &cobra.Command{
	Use:   "watch <diagram.mmd>",
	Short: "Re-render a Mermaid file on every save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := createLogger(cmd, cfg)

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		studio, err := buildStudio(cfg, logger)
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory, not the file: editors replace files on save
		// and the inode-level watch would go stale.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		check := func() {
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("read failed", "path", path, "err", err)
				return
			}
			renderOnce(ctx, studio, string(data))
		}
		check()

		// Editors fire bursts of events per save; settle before re-rendering.
		var settle *time.Timer
		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nStopped watching.")
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Name != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if settle != nil {
					settle.Stop()
				}
				settle = time.AfterFunc(100*time.Millisecond, check)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watcher error", "err", err)
			}
		}
	},
}

func renderOnce(ctx context.Context, studio *flowlab.Studio, text string) {
	summary := graph.Inspect(text)
	result := studio.RenderText(ctx, text)
	stamp := time.Now().Format("15:04:05")
	if result.OK {
		fmt.Printf("[%s] ok: %s diagram, %d lines\n", stamp, summary.Kind, summary.Lines)
		return
	}
	fmt.Printf("[%s] %s\n", stamp, result.Hint)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
