package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"danmux/internal/config"
	"danmux/internal/preflight"
	"danmux/internal/services"
)

// runCLI executes the command tree against a scratch HOME so no test ever
// touches a real configuration or history database.
func runCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output missing %q:\n%s", needle, haystack)
	}
}

func TestRootHelpListsWorkflows(t *testing.T) {
	out, err := runCLI(t, []string{"--help"})
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"download", "audio", "refresh", "refetch", "status", "history", "config"} {
		requireContains(t, out, name)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	// A second init without --overwrite refuses to clobber the file.
	_, err = runCLI(t, []string{"config", "init", "--path", target})
	if err == nil {
		t.Fatal("expected error for existing config file")
	}
	requireContains(t, err.Error(), "already exists")
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	out, err := runCLI(t, []string{"config", "show"})
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[fetcher]")
	requireContains(t, out, "binary = 'yt-dlp'")
}

func TestDownloadRejectsMalformedURL(t *testing.T) {
	_, err := runCLI(t, []string{"download", "not a url"})
	if !errors.Is(err, services.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitUsage {
		t.Fatalf("usage errors must map to exit code %d", services.ExitUsage)
	}
}

func TestDownloadRefusesFailedPreflight(t *testing.T) {
	original := runPreflight
	runPreflight = func(*config.Config) []preflight.Result {
		return []preflight.Result{
			{Name: "yt-dlp", Detail: "yt-dlp not found in PATH"},
		}
	}
	t.Cleanup(func() { runPreflight = original })

	_, err := runCLI(t, []string{"download", "https://example.com/v/1"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, err.Error(), "yt-dlp")
}

func TestStatusRendersCheckTable(t *testing.T) {
	// The command may exit nonzero when a binary is absent; the report must
	// render either way.
	out, _ := runCLI(t, []string{"status"})
	requireContains(t, out, "CHECK")
	requireContains(t, out, "yt-dlp")
}

func TestDownloadRequiresArguments(t *testing.T) {
	_, err := runCLI(t, []string{"download"})
	if err == nil {
		t.Fatal("expected argument validation error")
	}
}

func TestHistoryEmptyStore(t *testing.T) {
	out, err := runCLI(t, []string{"history"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No downloads recorded yet")
}
