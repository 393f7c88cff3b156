// Package executor runs external tools on behalf of the hook commands.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Command describes a process to start. Path is resolved on PATH when it
// has no separator.
type Command struct {
	Path string
	Args []string
	Dir  string
}

// String renders the command the way a user would type it into a shell.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Path}, c.Args...)...)
}

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	Command Command
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command failed with exit status %d: %s", e.Code, e.Command)
}

// Runner is an interface for executing commands. It allows tests to inject
// fake implementations without running real processes.
type Runner interface {
	Run(ctx context.Context, c Command, stdout io.Writer, stderr io.Writer) error
}

// New returns a Runner backed by the real Executor implementation.
func New(dry, verbose bool) Runner {
	return &Executor{DryRun: dry, Verbose: verbose}
}

// Executor starts processes directly, without an intermediate shell.
type Executor struct {
	DryRun  bool
	Verbose bool
}

// Run validates c, then executes it streaming stdout/stderr to the provided
// writers. A non-zero exit is returned as *ExitError.
func (e *Executor) Run(ctx context.Context, c Command, stdout io.Writer, stderr io.Writer) error {
	if err := ValidateCommand(c); err != nil {
		return err
	}

	if handled := e.handleDryRunIfNeeded(c, stdout); handled {
		return nil
	}

	if _, err := exec.LookPath(c.Path); err != nil {
		return fmt.Errorf("executable not found: %s: %w", c.Path, err)
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Stdout = writerOrDiscard(stdout)
	cmd.Stderr = writerOrDiscard(stderr)

	if err := cmd.Run(); err != nil {
		return checkExecutionError(ctx, err, c)
	}
	return nil
}

func (e *Executor) handleDryRunIfNeeded(c Command, stdout io.Writer) bool {
	if e.DryRun {
		if e.Verbose && stdout != nil {
			_, _ = fmt.Fprintf(stdout, "dry-run: %s\n", c)
		}
		return true
	}
	return false
}

func checkExecutionError(ctx context.Context, err error, c Command) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("command aborted: %w (cmd=%s)", ctxErr, c)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: c, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("command failed: %w (cmd=%s)", err, c)
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// ValidateCommand rejects commands that cannot be handed to the OS intact:
// an empty executable, or NUL and other control characters in any argument.
func ValidateCommand(c Command) error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("invalid command: empty executable")
	}
	if hasControl(c.Path) {
		return fmt.Errorf("invalid command: executable contains control characters")
	}
	for i, a := range c.Args {
		if hasControl(a) {
			return fmt.Errorf("invalid command arg[%d]: contains control characters", i)
		}
	}
	return nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r == 0 || (r < 32 && r != '\t') || r == 0x7f }) != -1
}
