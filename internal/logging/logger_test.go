package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"danmux/internal/logging"
	"danmux/internal/services"
)

func TestConsoleFormatIncludesComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	scoped := logging.NewComponentLogger(logger, "merger")
	scoped.Info("embed complete", logging.Int("overlays", 2), logging.String("path", "/tmp/a b.mkv"))

	line := buf.String()
	if !strings.Contains(line, "INFO merger: embed complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "overlays=2") {
		t.Fatalf("missing int attr: %q", line)
	}
	if !strings.Contains(line, `path="/tmp/a b.mkv"`) {
		t.Fatalf("expected quoted path attr: %q", line)
	}
}

func TestConsoleLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info leaked through warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("warn suppressed: %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("fetch", logging.String("url", "https://example.test/v"))
	if !strings.Contains(buf.String(), `"msg":"fetch"`) {
		t.Fatalf("unexpected json line: %q", buf.String())
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAnnotations(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithWorkflow(services.WithItemID(context.Background(), "BV1xx"), "download-video")
	logging.WithContext(ctx, logger).Info("start")

	line := buf.String()
	if !strings.Contains(line, "item_id=BV1xx") || !strings.Contains(line, "workflow=download-video") {
		t.Fatalf("missing context annotations: %q", line)
	}
}
