package cmd

import (
	"fmt"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/carlibs/repohooks/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent hook runs",
	Long:  "Show recent hook runs recorded in the local database (time, tool, result, exit status, duration, arguments)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tool, _ := cmd.Flags().GetString("tool")
		limit, _ := cmd.Flags().GetInt("limit")

		dbConn, err := openHistoryDB()
		if err != nil {
			return err
		}
		defer func() { _ = dbConn.Close() }()

		runs, err := history.NewRepository(dbConn).List(tool, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		for _, r := range runs {
			result := "PASS"
			if !r.Passed {
				result = "FAIL"
			}
			fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%s\t%s\n",
				r.StartedAt.Local().Format(time.DateTime), r.Tool, result, r.ExitCode,
				r.Duration.Round(time.Millisecond), shellquote.Join(r.Args...))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("tool", "", "Only show runs of this subcommand")
	historyCmd.Flags().Int("limit", history.DefaultLimit, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
