package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowlab-edu/flowlab/pkg/domain"
)

// exportCmd renders a .mmd file to an artifact without starting a server.
var exportCmd = &cobra.Command{
	Use:   "export <diagram.mmd>",
	Short: "Render a Mermaid file to PNG or SVG",
	Long: `Reads a Mermaid source file, renders it through the configured
rendering service and writes the artifact next to the source file
(or to --out).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := createLogger(cmd, cfg)

		formatStr, _ := cmd.Flags().GetString("format")
		format, err := domain.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		if format == domain.FormatSource {
			return fmt.Errorf("source export is a copy; pick png or svg")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read diagram: %w", err)
		}
		text := string(data)

		studio, err := buildStudio(cfg, logger)
		if err != nil {
			return err
		}

		// Render first so failures come out as hints, not HTTP noise.
		result := studio.RenderText(cmd.Context(), text)
		if !result.OK {
			fmt.Println(result.Hint)
			os.Exit(1)
		}

		artifact, err := studio.ExportText(cmd.Context(), text, format)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			out = base + "." + format.Extension()
		}
		if err := os.WriteFile(out, artifact, 0644); err != nil {
			return fmt.Errorf("failed to write artifact: %w", err)
		}

		fmt.Printf("Exported %s (%d bytes)\n", out, len(artifact))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", "svg", "Artifact format: png or svg")
	exportCmd.Flags().String("out", "", "Output path (default: source path with new extension)")
}

