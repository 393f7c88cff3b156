// Package relnote checks that a commit message carries a release-note tag.
//
// A tag is a line of the form "Relnote: <text>". The field name is matched
// case-insensitively and the line must start with it; the text after ": "
// may be anything, including "N/A" for changes that should stay out of the
// release notes.
package relnote

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultField is the tag name required in unbundled repositories.
const DefaultField = "Relnote"

const requiredMsg = `
Commit to unbundled repositories must contain the ` + "`%[1]s:`" + ` tag.  It must
match the regex:

    %[2]s

The %[1]s: stanza is free-form and should describe what developers need to
know about your change.  If the change isn't meaningful externally, you
can set the %[1]s: stanza to be N/A for the commit to not be included
in release notes.

For multiline release notes, you need to include a starting and closing quote. For example:

%[1]s: "Added a new API ` + "`Class#getSize`" + ` to get the size of the class.
    This is useful if you need to know the size of the class."
`

// MissingError is returned by Check when no line carries the tag. Its
// message is the guidance shown to the commit author.
type MissingError struct {
	Field   string
	Pattern string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf(requiredMsg, e.Field, e.Pattern)
}

// Pattern returns the per-line regular expression for field.
func Pattern(field string) string {
	return "^" + regexp.QuoteMeta(field) + ": .+$"
}

// Checker matches commit messages against a tag field.
type Checker struct {
	field   string
	pattern string
	re      *regexp.Regexp
}

// New returns a Checker for field; an empty field means DefaultField.
func New(field string) (*Checker, error) {
	if strings.TrimSpace(field) == "" {
		field = DefaultField
	}
	p := Pattern(field)
	re, err := regexp.Compile("(?i)" + p)
	if err != nil {
		return nil, fmt.Errorf("compile relnote pattern: %w", err)
	}
	return &Checker{field: field, pattern: p, re: re}, nil
}

// Field returns the tag name the checker looks for.
func (c *Checker) Field() string { return c.field }

// Find returns the lines of message that carry the tag, in order.
func (c *Checker) Find(message string) []string {
	var found []string
	for _, line := range SplitLines(message) {
		if c.re.MatchString(line) {
			found = append(found, line)
		}
	}
	return found
}

// Check returns nil when message carries the tag and *MissingError otherwise.
func (c *Checker) Check(message string) error {
	if len(c.Find(message)) > 0 {
		return nil
	}
	return &MissingError{Field: c.field, Pattern: c.pattern}
}

// SplitLines breaks s at line boundaries: "\n", "\r", "\r\n", "\v", "\f",
// the file, group and record separators, NEL, and the Unicode line and
// paragraph separators. A trailing line break does not produce an empty
// final line.
func SplitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if !isLineBreak(r) {
			continue
		}
		if r == '\n' && i > 0 && s[i-1] == '\r' {
			start = i + 1
			continue
		}
		lines = append(lines, s[start:i])
		start = i + utf8.RuneLen(r)
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
