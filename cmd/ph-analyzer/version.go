package main

import (
	"fmt"

	"github.com/spf13/cobra"

	phanalyzer "github.com/menta2k/ph-analyzer"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), phanalyzer.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
