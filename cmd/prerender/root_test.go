package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "prerender" {
			t.Errorf("expected use 'prerender', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has no subcommands", func(t *testing.T) {
		t.Parallel()
		if len(cmd.Commands()) != 0 {
			t.Errorf("expected no subcommands, got %d", len(cmd.Commands()))
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestNewRootCmd_Flags checks every flag's shorthand and default.
func TestNewRootCmd_Flags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "url", shorthand: "u", defValue: ""},
		{name: "root", shorthand: "d", defValue: "/var/www"},
		{name: "max-pages", shorthand: "p", defValue: "0"},
		{name: "max-depth", defValue: "-1"},
		{name: "keep-going", shorthand: "k", defValue: "false"},
		{name: "engine", shorthand: "e", defValue: "chrome"},
		{name: "chromium", shorthand: "c", defValue: ""},
		{name: "timeout", shorthand: "t", defValue: "30s"},
		{name: "proxy", defValue: ""},
		{name: "user-agent", defValue: ""},
		{name: "config", defValue: ""},
		{name: "history", defValue: "false"},
		{name: "json", shorthand: "j", defValue: "false"},
		{name: "markdown", shorthand: "m", defValue: "false"},
		{name: "output", shorthand: "o", defValue: ""},
		{name: "verbose", shorthand: "v", defValue: "false"},
	}

	cmd := NewRootCmd()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}

	t.Run("db-dir defaults to a prerender directory", func(t *testing.T) {
		t.Parallel()

		flag := cmd.Flags().Lookup("db-dir")
		if flag == nil {
			t.Fatal("expected db-dir flag")
		}
		if !strings.HasSuffix(flag.DefValue, "prerender") {
			t.Errorf("unexpected default %q", flag.DefValue)
		}
	})
}

func TestRootCmd_RequiresURL(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error without --url")
	}
	if !strings.Contains(err.Error(), "url") {
		t.Errorf("expected error to mention url, got %v", err)
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--url", "https://example.com/", "extra"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for a positional argument")
	}
}

func TestRootCmd_Version(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--version"})
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"prerender version", "commit:", "built:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}
