package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lumi-launcher/backend/internal/config"
)

func TestInitWritesRotatingFile(t *testing.T) {
	root := t.TempDir()
	logPath := filepath.Join(root, "launcher.log")

	_, err := Init(config.LoggingConfig{
		Level:      "info",
		Format:     "json",
		File:       logPath,
		MaxSize:    10,
		MaxBackups: 1,
		MaxAge:     1,
	})
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	Component("scanner").Info("scan_complete", "path", "/srv/lumi")
	if err := Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"scanner"`) {
		t.Fatalf("expected component attribute in %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
