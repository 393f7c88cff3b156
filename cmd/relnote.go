package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/carlibs/repohooks/internal/logger"
	"github.com/carlibs/repohooks/internal/relnote"
)

var checkRelnoteCmd = &cobra.Command{
	Use:   "check-relnote [<commit-message>]",
	Short: "Verify that a commit message carries a Relnote: tag",
	Long: `Verify that a commit message carries a Relnote: tag. Examples:
  repohooks check-relnote "$(git log -1 --format=%B)"
  git log -1 --format=%B | repohooks check-relnote --file -

The tag is free-form; use "Relnote: N/A" for changes that should not show up
in the release notes. Exits 1 and prints guidance when the tag is missing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		file, _ := cmd.Flags().GetString("file")

		msg, err := readCommitMessage(cmd, file, args)
		if err != nil {
			return err
		}

		err = checkRelnote(cmd, msg)
		recordRun(cmd, "check-relnote", []string{subject(msg)}, started, err)
		return err
	},
}

func checkRelnote(cmd *cobra.Command, msg string) error {
	c, err := relnote.New(cfg.Relnote.Field)
	if err != nil {
		return err
	}
	err = c.Check(msg)
	var missing *relnote.MissingError
	if errors.As(err, &missing) {
		fmt.Fprintln(cmd.OutOrStdout(), missing.Error())
		return &hookFailure{err: err}
	}
	if err != nil {
		return err
	}
	logger.FromContext(cmd.Context()).Info("relnote tag found", "lines", c.Find(msg))
	return nil
}

// readCommitMessage takes the message from the single positional argument
// or from --file; "-" reads stdin.
func readCommitMessage(cmd *cobra.Command, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass the commit message either as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read commit message from stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read commit message: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("commit message required: pass it as an argument or use --file")
	}
}

// subject returns the first line of a commit message.
func subject(msg string) string {
	if lines := relnote.SplitLines(msg); len(lines) > 0 {
		return lines[0]
	}
	return ""
}

func init() {
	checkRelnoteCmd.Flags().String("file", "", "Read the commit message from a file ('-' for stdin)")
	rootCmd.AddCommand(checkRelnoteCmd)
}
