package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carlibs/repohooks/internal/config"
	"github.com/carlibs/repohooks/internal/logger"
)

// cfg is loaded before every subcommand runs.
var cfg = config.Defaults()

var rootCmd = &cobra.Command{
	Use:   "repohooks",
	Short: "repohooks runs the review hooks of the unbundled car libraries",
	Long: `repohooks bundles the checks run on every change uploaded to the unbundled
car libraries: the Relnote: commit message tag, the checkstyle pass over the
library folders, and the slim AAR packaging step.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "repohooks: run 'repohooks --help' to see available commands")
	},
}

// hookFailure marks an error whose details were already shown to the user.
// Execute exits 1 without printing it again.
type hookFailure struct {
	err error
}

func (e *hookFailure) Error() string { return e.err.Error() }
func (e *hookFailure) Unwrap() error { return e.err }

func loadConfig(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		c.Logging.Level = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		c.Logging.Format = f.Value.String()
	}
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		c.History.Enabled = false
	}
	if err := config.Validate(c); err != nil {
		return err
	}
	cfg = c

	l := logger.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	cmd.SetContext(logger.WithContext(cmd.Context(), l))
	return nil
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var hf *hookFailure
		if !errors.As(err, &hf) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("no-history", false, "Do not record this run in the local history database")
}
