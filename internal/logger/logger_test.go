package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInitCreatesLogDir(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	if _, err := os.Stat(filepath.Join(configDir, "logs")); os.IsNotExist(err) {
		t.Error("Log directory was not created")
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if Logger.GetLevel() != log.WarnLevel {
		t.Errorf("expected warn level by default, got %v", Logger.GetLevel())
	}

	Warn("Test warning message", "key", "value")
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want log.Level
	}{
		{"explicit info", Config{Level: "info"}, log.InfoLevel},
		{"uppercase error", Config{Level: "ERROR"}, log.ErrorLevel},
		{"debug flag wins", Config{Level: "error", Debug: true}, log.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			if err := Init(tt.cfg); err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			if Logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", Logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init(Config{ConfigDir: t.TempDir(), Level: "chatty"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestUseAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Use(New(&buf, log.InfoLevel))
	t.Cleanup(func() { Logger = nil })

	Info("habit toggled", "id", "h1")
	Debug("hidden")
	Component("http").Info("request", "status", 200)

	out := buf.String()
	if !strings.Contains(out, "habit toggled") || !strings.Contains(out, "id=h1") {
		t.Errorf("unexpected log output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out, "habitlit/http") {
		t.Errorf("component prefix missing: %q", out)
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// Must not panic
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
	Component("store").Warn("discarded")
}
