// Package history records the outcome of each hook run in the local
// SQLite database so failures can be inspected after the fact.
package history

import "time"

// Run is a single recorded hook invocation.
type Run struct {
	ID        string
	Tool      string
	Args      []string
	Passed    bool
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
}
