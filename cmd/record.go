package cmd

import (
	"database/sql"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/carlibs/repohooks/internal/db"
	"github.com/carlibs/repohooks/internal/executor"
	"github.com/carlibs/repohooks/internal/history"
	"github.com/carlibs/repohooks/internal/logger"
)

// recordRun stores the outcome of a hook command. Failing to record never
// changes the hook result; it is only logged.
func recordRun(cmd *cobra.Command, tool string, args []string, started time.Time, runErr error) {
	if !cfg.History.Enabled {
		return
	}
	l := logger.FromContext(cmd.Context())

	dbConn, err := openHistoryDB()
	if err != nil {
		l.Warn("history unavailable", "error", err)
		return
	}
	defer func() { _ = dbConn.Close() }()

	run := history.Run{
		Tool:      tool,
		Args:      args,
		Passed:    runErr == nil,
		ExitCode:  exitCode(runErr),
		StartedAt: started,
		Duration:  time.Since(started),
	}
	id, err := history.NewRepository(dbConn).Record(run)
	if err != nil {
		l.Warn("recording run failed", "tool", tool, "error", err)
		return
	}
	l.Debug("run recorded", "id", id, "tool", tool, "passed", run.Passed)
}

func openHistoryDB() (*sql.DB, error) {
	if cfg.History.DBPath != "" {
		return db.Open(cfg.History.DBPath)
	}
	return db.InitDB()
}

// exitCode maps a hook error to the process exit status it stands for.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *executor.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
