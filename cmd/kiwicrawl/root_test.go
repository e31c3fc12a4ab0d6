package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "kiwicrawl" {
			t.Errorf("expected use 'kiwicrawl', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions and version", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has log-json flag", func(t *testing.T) {
		t.Parallel()
		if cmd.PersistentFlags().Lookup("log-json") == nil {
			t.Fatal("expected log-json flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"crawl", "report", "history", "init", "version"} {
			if !names[want] {
				t.Errorf("expected %s subcommand", want)
			}
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

// TestGetBoolFlag tests flag retrieval from the command or its root.
func TestGetBoolFlag(t *testing.T) {
	t.Parallel()

	t.Run("returns false when flag does not exist", func(t *testing.T) {
		t.Parallel()
		if getBoolFlag(&cobra.Command{Use: "bare"}, "verbose") {
			t.Error("expected false for missing flag")
		}
	})

	t.Run("returns value from parent persistent flag", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		crawlCmd, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatalf("failed to find crawl command: %v", err)
		}
		if !getBoolFlag(crawlCmd, "verbose") {
			t.Error("expected true from parent verbose flag")
		}
		if getBoolFlag(crawlCmd, "log-json") {
			t.Error("expected log-json to stay false")
		}
	})
}

// TestSetupLogger tests the logger setup.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("quiet text logger drops debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := setupLogger(&buf, false, false)
		logger.Debug("hidden")
		logger.Warn("shown")

		if strings.Contains(buf.String(), "hidden") {
			t.Error("expected debug message to be dropped")
		}
		if !strings.Contains(buf.String(), "msg=shown") {
			t.Errorf("expected text warning, got %q", buf.String())
		}
	})

	t.Run("verbose logger keeps debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		setupLogger(&buf, true, false).Debug("trace event")

		if !strings.Contains(buf.String(), "trace event") {
			t.Errorf("expected debug message, got %q", buf.String())
		}
	})

	t.Run("json logger writes JSON lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		setupLogger(&buf, false, true).Warn("shown")

		if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"msg":"shown"`) {
			t.Errorf("expected JSON line, got %q", buf.String())
		}
	})
}
