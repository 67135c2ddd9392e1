package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowlab-edu/flowlab/internal/presentation/graph"
	"github.com/flowlab-edu/flowlab/internal/presentation/tui"
	"github.com/flowlab-edu/flowlab/pkg/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Browse the starter diagram templates",
}

var templatesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all starter templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := templates.Builtin()
		if err != nil {
			return err
		}

		render := tui.NewRenderer()
		md := "# Starter Templates\n\n"
		for _, t := range lib.List() {
			md += fmt.Sprintf("- **%s**: %s\n", t.Name, t.Description)
		}
		out, err := render(md)
		if err != nil {
			// Fall back to plain text on terminals glamour cannot handle.
			fmt.Println(md)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the Mermaid source of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := templates.Builtin()
		if err != nil {
			return err
		}

		tpl, err := lib.Get(args[0])
		if err != nil {
			fmt.Printf("Template '%s' not found. Run 'flowlab templates ls' to see what's available.\n", args[0])
			os.Exit(1)
		}

		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			fmt.Println(tpl.Text)
			return nil
		}

		summary := graph.Inspect(tpl.Text)
		render := tui.NewRenderer()
		md := fmt.Sprintf("# %s\n\n%s\n\nKind: `%s`\n\n```mermaid\n%s\n```\n",
			tpl.Name, tpl.Description, summary.Kind, tpl.Text)
		out, err := render(md)
		if err != nil {
			fmt.Println(tpl.Text)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesLsCmd)
	templatesCmd.AddCommand(templatesShowCmd)

	templatesShowCmd.Flags().Bool("raw", false, "Print the raw Mermaid source only")
}
