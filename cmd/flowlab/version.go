package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowlab-edu/flowlab"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowlab",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowlab version %s\n", strings.TrimSpace(flowlab.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
