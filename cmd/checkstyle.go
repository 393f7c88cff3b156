package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/carlibs/repohooks/internal/checkstyle"
	"github.com/carlibs/repohooks/internal/executor"
	"github.com/carlibs/repohooks/internal/logger"
)

// execFactory is replaced in tests to avoid starting real processes.
var execFactory = executor.New

var runCheckstyleCmd = &cobra.Command{
	Use:   "run-checkstyle <repo_root> <sha>",
	Short: "Run checkstyle over every library folder except the excluded ones",
	Long: `Run <repo_root>/prebuilts/checkstyle/checkstyle.py for commit <sha> over the
folders under --dir (default: the working directory). Folders matching an
exclusion pattern are skipped; the default list comes from the config file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		dir, _ := cmd.Flags().GetString("dir")
		script, _ := cmd.Flags().GetString("script")
		dry, _ := cmd.Flags().GetBool("dry-run")
		verbose, _ := cmd.Flags().GetBool("verbose")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		exclude := cfg.Checkstyle.Exclude
		if cmd.Flags().Changed("exclude") {
			exclude, _ = cmd.Flags().GetStringArray("exclude")
		}
		if script == "" {
			script = cfg.Checkstyle.Script
		}
		if timeout <= 0 {
			timeout = cfg.Checkstyle.Timeout
		}
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = wd
		}

		opts := checkstyle.Options{
			RepoRoot: args[0],
			SHA:      args[1],
			Dir:      dir,
			Script:   script,
			Exclude:  exclude,
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		e := execFactory(dry, verbose || dry)
		err := checkstyle.Run(ctx, e, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if !dry {
			recordRun(cmd, "run-checkstyle", args, started, err)
		}

		var exitErr *executor.ExitError
		if errors.As(err, &exitErr) {
			logger.FromContext(ctx).Error("checkstyle reported failures", "exit_code", exitErr.Code)
			return &hookFailure{err: err}
		}
		return err
	},
}

func init() {
	runCheckstyleCmd.Flags().String("dir", "", "Directory holding the library folders (default: working directory)")
	runCheckstyleCmd.Flags().StringArray("exclude", nil, "Folder name or glob to skip; replaces the configured list (repeatable)")
	runCheckstyleCmd.Flags().String("script", "", "Checkstyle command, relative to <repo_root> (default prebuilts/checkstyle/checkstyle.py)")
	runCheckstyleCmd.Flags().Bool("dry-run", false, "Print the checkstyle command instead of running it")
	runCheckstyleCmd.Flags().Bool("verbose", false, "Verbose output")
	runCheckstyleCmd.Flags().Duration("timeout", 0, "Abort checkstyle after this long (default from config, 10m)")
	rootCmd.AddCommand(runCheckstyleCmd)
}
