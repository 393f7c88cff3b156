// Package checkstyle runs the repository's checkstyle wrapper over every
// library folder except the excluded ones.
package checkstyle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/kballard/go-shellquote"

	"github.com/carlibs/repohooks/internal/executor"
	"github.com/carlibs/repohooks/internal/logger"
)

// DefaultScript is the checkstyle wrapper location relative to the repo root.
var DefaultScript = filepath.Join("prebuilts", "checkstyle", "checkstyle.py")

// Options configures a checkstyle run.
type Options struct {
	RepoRoot string
	SHA      string
	// Dir holds the library folders; empty means the working directory.
	Dir string
	// Script overrides DefaultScript and may include an interpreter,
	// e.g. "python3 tools/checkstyle.py".
	Script  string
	Exclude []string
}

// Matcher reports whether a folder name is excluded.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles patterns. Plain names match exactly; glob syntax
// (*, ?, [..], {a,b}) is honoured.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether name matches any pattern.
func (m *Matcher) Match(name string) bool {
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ListFolders returns the names of the directories directly under dir that
// are not excluded, sorted by name.
func ListFolders(dir string, exclude []string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	m, err := NewMatcher(exclude)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !isDir(dir, e) || m.Match(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// isDir follows symlinks so a linked library folder is still checked.
func isDir(dir string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && fi.IsDir()
}

// BuildInvocation assembles the checkstyle command line for folders.
func BuildInvocation(opts Options, folders []string) (executor.Command, error) {
	if opts.RepoRoot == "" {
		return executor.Command{}, fmt.Errorf("repo root is required")
	}
	if opts.SHA == "" {
		return executor.Command{}, fmt.Errorf("sha is required")
	}

	// The child runs in opts.Dir, so a relative root would resolve there
	// instead of the working directory.
	root, err := filepath.Abs(opts.RepoRoot)
	if err != nil {
		return executor.Command{}, fmt.Errorf("resolve repo root: %w", err)
	}

	argv := []string{filepath.Join(root, DefaultScript)}
	if opts.Script != "" {
		toks, err := shellquote.Split(opts.Script)
		if err != nil {
			return executor.Command{}, fmt.Errorf("parse checkstyle script %q: %w", opts.Script, err)
		}
		if len(toks) == 0 {
			return executor.Command{}, fmt.Errorf("checkstyle script is empty")
		}
		resolveScript(toks, root)
		argv = toks
	}

	args := append([]string{}, argv[1:]...)
	args = append(args, "--sha", opts.SHA, "--file_whitelist")
	args = append(args, folders...)
	return executor.Command{Path: argv[0], Args: args, Dir: opts.Dir}, nil
}

// resolveScript joins the script token of toks with root. The script is the
// first token holding a '/' that is not an option; an absolute leading token
// is an interpreter. Bare names are left for PATH lookup.
func resolveScript(toks []string, root string) {
	for i, tok := range toks {
		if strings.HasPrefix(tok, "-") || !strings.ContainsRune(tok, '/') {
			continue
		}
		if filepath.IsAbs(tok) {
			if i > 0 {
				return
			}
			continue
		}
		toks[i] = filepath.Join(root, tok)
		return
	}
}

// Run lists the folders, builds the command and executes it with runner.
// A non-zero exit of the checkstyle tool surfaces as *executor.ExitError.
func Run(ctx context.Context, runner executor.Runner, opts Options, stdout, stderr io.Writer) error {
	folders, err := ListFolders(opts.Dir, opts.Exclude)
	if err != nil {
		return err
	}
	c, err := BuildInvocation(opts, folders)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("running checkstyle", "cmd", c.String(), "folders", len(folders))
	return runner.Run(ctx, c, stdout, stderr)
}
