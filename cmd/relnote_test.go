package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckRelnotePasses(t *testing.T) {
	setupEnv(t)
	out, _, err := runCLI(t, "", "check-relnote", "Fix toolbar\n\nBug: 1\nRelnote: Fixed toolbar padding.\n")
	if err != nil {
		t.Fatalf("expected pass, got: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no output on success, got: %q", out)
	}
}

func TestCheckRelnoteMissingPrintsGuidance(t *testing.T) {
	setupEnv(t)
	out, _, err := runCLI(t, "", "check-relnote", "Fix toolbar\n\nBug: 1\n")
	var hf *hookFailure
	if !errors.As(err, &hf) {
		t.Fatalf("expected hook failure, got: %v", err)
	}
	if !strings.Contains(out, "must contain the `Relnote:` tag") || !strings.Contains(out, "^Relnote: .+$") {
		t.Fatalf("expected guidance on stdout, got: %q", out)
	}
}

func TestCheckRelnoteFromFileAndStdin(t *testing.T) {
	dir := setupEnv(t)
	msgFile := filepath.Join(dir, "COMMIT_EDITMSG")
	if err := os.WriteFile(msgFile, []byte("Subject\n\nrelnote: N/A\n"), 0o644); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if _, _, err := runCLI(t, "", "check-relnote", "--file", msgFile); err != nil {
		t.Fatalf("expected pass from file, got: %v", err)
	}
	if _, _, err := runCLI(t, "Subject\n\nRelnote: N/A\n", "check-relnote", "--file", "-"); err != nil {
		t.Fatalf("expected pass from stdin, got: %v", err)
	}
	if _, _, err := runCLI(t, "Subject only\n", "check-relnote", "--file", "-"); err == nil {
		t.Fatalf("expected failure from stdin without tag")
	}
}

func TestCheckRelnoteArgumentErrors(t *testing.T) {
	setupEnv(t)
	if _, _, err := runCLI(t, "", "check-relnote"); err == nil || !strings.Contains(err.Error(), "commit message required") {
		t.Fatalf("expected missing message error, got: %v", err)
	}
	if _, _, err := runCLI(t, "", "check-relnote", "--file", "x", "msg"); err == nil || !strings.Contains(err.Error(), "not both") {
		t.Fatalf("expected conflicting sources error, got: %v", err)
	}
	if _, _, err := runCLI(t, "", "check-relnote", "--file", "does-not-exist"); err == nil {
		t.Fatalf("expected error for unreadable file")
	}
}

func TestCheckRelnoteCustomFieldFromConfig(t *testing.T) {
	dir := setupEnv(t)
	if err := os.WriteFile(filepath.Join(dir, ".repohooks.yaml"), []byte("relnote:\n  field: Release-Note\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, "", "check-relnote", "Subject\n\nRelease-Note: N/A"); err != nil {
		t.Fatalf("expected pass with custom field, got: %v", err)
	}
	out, _, err := runCLI(t, "", "check-relnote", "Subject\n\nRelnote: N/A")
	if err == nil || !strings.Contains(out, "^Release-Note: .+$") {
		t.Fatalf("expected failure mentioning custom pattern, got err=%v out=%q", err, out)
	}
}
