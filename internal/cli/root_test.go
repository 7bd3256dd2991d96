package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nagsync/nagsync/internal/engine"
)

func TestRootCommand_Help(t *testing.T) {
	rootCmd.SetArgs([]string{"--help"})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if output == "" {
		t.Error("expected help output, got empty string")
	}
	if !contains(output, "nagsync") {
		t.Error("expected help to contain 'nagsync'")
	}
	for _, group := range []string{"Reconciliation:", "Inspection:", "CLI & Tooling:"} {
		if !contains(output, group) {
			t.Errorf("expected help to contain group %q", group)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	SetVersion("1.2.3")
	// Cobra uses --version flag, not a version subcommand
	rootCmd.SetArgs([]string{"--version"})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	// Version output should contain the version number
	if !contains(output, "1.2.3") && !contains(output, "dev") {
		t.Errorf("expected version output to contain version, got %q", output)
	}
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"invalid-command"})
	var buf bytes.Buffer
	rootCmd.SetErr(&buf)

	err := rootCmd.Execute()
	if err == nil {
		t.Error("expected error for invalid command")
	}
}

func TestSetVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"normal version", "1.2.3", "1.2.3"},
		{"empty version", "", "dev"}, // Should not change if empty
		{"dev version", "dev", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersion(tt.version)
			if tt.version != "" && rootCmd.Version != tt.version {
				t.Errorf("SetVersion(%q) = %q, want %q", tt.version, rootCmd.Version, tt.version)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	subcommands := []string{
		"apply", "check", "watch", "plan", "status", "facts",
		"version", "completion",
	}

	for _, cmd := range subcommands {
		t.Run(cmd, func(t *testing.T) {
			subCmd, _, err := rootCmd.Find([]string{cmd})
			if err != nil {
				t.Errorf("Find(%q) error = %v", cmd, err)
			}
			if subCmd == nil {
				t.Errorf("Find(%q) returned nil command", cmd)
			}
		})
	}
}

func TestCommandLines_GroupsCommands(t *testing.T) {
	reconcile := commandLines(rootCmd, "reconcile")
	for _, name := range []string{"apply", "check", "watch"} {
		if !contains(reconcile, name) {
			t.Errorf("reconcile group missing %q:\n%s", name, reconcile)
		}
	}
	if contains(reconcile, "facts") {
		t.Errorf("facts listed under reconcile:\n%s", reconcile)
	}
	if ungrouped := commandLines(rootCmd, ""); ungrouped != "" {
		t.Errorf("unexpected ungrouped commands:\n%s", ungrouped)
	}
}

func TestCompletionCommand_Shells(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		cmd, _, err := rootCmd.Find([]string{"completion", shell})
		if err != nil || cmd.Name() != shell {
			t.Errorf("Find(completion %s) = %v, %v", shell, cmd, err)
		}
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "diverged", err: fmt.Errorf("%w: 2 of 5 resources", engine.ErrDiverged), want: 1},
		{name: "not converged", err: fmt.Errorf("%w: 1 of 5 resources failed", engine.ErrNotConverged), want: 1},
		{name: "bad manifest", err: errors.New("failed to read manifest"), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
