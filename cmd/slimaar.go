package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/carlibs/repohooks/internal/aar"
	"github.com/carlibs/repohooks/internal/logger"
)

var makeSlimAARCmd = &cobra.Command{
	Use:   "make-slim-aar <output> <soong_aar> [res_folder...]",
	Short: "Strip dependency classes from a soong AAR and add resources",
	Long: `AARs built with soong carry the classes of all their dependencies and no
resources. make-slim-aar keeps only the classes under --classes-allowlist
(minus generated R classes), copies the rest of the AAR, and adds each
resource folder under res/.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		allowlist, _ := cmd.Flags().GetString("classes-allowlist")

		stats, err := aar.Slim(aar.Options{
			Output:           args[0],
			SoongAAR:         args[1],
			ClassesAllowlist: allowlist,
			ResFolders:       args[2:],
		})
		recordRun(cmd, "make-slim-aar", args, started, err)
		if err != nil {
			return err
		}
		logger.FromContext(cmd.Context()).Info("slim aar written",
			"output", args[0],
			"classes_kept", stats.ClassesKept,
			"classes_dropped", stats.ClassesDropped,
			"entries_copied", stats.EntriesCopied,
			"resources", stats.Resources)
		return nil
	},
}

func init() {
	makeSlimAARCmd.Flags().String("classes-allowlist", "", "Entry-name prefix of the classes to keep, e.g. com/android/car/ui/")
	rootCmd.AddCommand(makeSlimAARCmd)
}
