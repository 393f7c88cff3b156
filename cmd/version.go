package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlibs/repohooks/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "repohooks %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
