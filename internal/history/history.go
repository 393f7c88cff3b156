package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
)

// timeLayout sorts lexically in the same order as the instants it encodes.
const timeLayout = "2006-01-02 15:04:05.000000"

// DefaultLimit is used by List when limit is not positive.
const DefaultLimit = 20

// Repository stores and lists hook runs.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new Repository using db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Record inserts run and returns its ID. A missing ID is generated and a
// zero StartedAt is taken to mean now.
func (r *Repository) Record(run Run) (string, error) {
	if strings.TrimSpace(run.Tool) == "" {
		return "", fmt.Errorf("invalid run: tool cannot be empty")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = r.now()
	}
	_, err := r.db.Exec(`INSERT INTO runs (id, tool, args, passed, exit_code, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Tool, shellquote.Join(run.Args...), boolToInt(run.Passed), run.ExitCode,
		run.StartedAt.UTC().Format(timeLayout), run.Duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return run.ID, nil
}

// List returns up to limit runs, newest first. An empty tool lists all tools.
func (r *Repository) List(tool string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := `SELECT id, tool, args, passed, exit_code, started_at, duration_ms FROM runs`
	var params []interface{}
	if tool != "" {
		q += ` WHERE tool = ?`
		params = append(params, tool)
	}
	q += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	params = append(params, limit)

	rows, err := r.db.Query(q, params...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			run       Run
			args      string
			passed    int
			startedAt string
			durMS     int64
		)
		if err := rows.Scan(&run.ID, &run.Tool, &args, &passed, &run.ExitCode, &startedAt, &durMS); err != nil {
			return nil, err
		}
		if args != "" {
			if run.Args, err = shellquote.Split(args); err != nil {
				return nil, fmt.Errorf("run %s: decode args: %w", run.ID, err)
			}
		}
		run.Passed = passed != 0
		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("run %s: parse started_at: %w", run.ID, err)
		}
		run.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, run)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
