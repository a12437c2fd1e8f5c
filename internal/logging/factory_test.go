package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_Selection(t *testing.T) {
	tests := []struct {
		name    string
		console bool
		file    bool
		check   func(Logger) bool
	}{
		{"console", true, false, func(l Logger) bool { _, ok := l.(*ConsoleLogger); return ok }},
		{"file", false, true, func(l Logger) bool { _, ok := l.(*FileLogger); return ok }},
		{"console and file", true, true, func(l Logger) bool { _, ok := l.(*MultiLogger); return ok }},
		{"nothing", false, false, func(l Logger) bool { _, ok := l.(*NoOpLogger); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := LogConfig{Level: INFO, EnableConsole: tt.console}
			if tt.file {
				config.OutputFile = filepath.Join(t.TempDir(), "logs", "gdmirror.log")
			}

			logger, err := NewLogger(config)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			t.Cleanup(func() { logger.Close() })

			if !tt.check(logger) {
				t.Errorf("unexpected logger type %T", logger)
			}
			if tt.file {
				if _, err := os.Stat(config.OutputFile); err != nil {
					t.Errorf("log file not created: %v", err)
				}
			}
		})
	}
}

func TestNewLogger_RunTraceIDReachesFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	logger, err := NewLogger(LogConfig{Level: DEBUG, OutputFile: logPath})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	runLogger := logger.WithTraceID("3f2a9c1e-run")
	runLogger.Debug("Listed folder", F("folderId", "root-1"), F("children", 3))
	logger.Info("untraced")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries := readEntries(t, logPath)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].TraceID != "3f2a9c1e-run" || entries[0].Fields["folderId"] != "root-1" {
		t.Errorf("traced entry = %+v", entries[0])
	}
	if entries[1].TraceID != "" {
		t.Errorf("parent logger picked up trace ID %q", entries[1].TraceID)
	}
}

func TestNewLogger_RedactSetting(t *testing.T) {
	const token = "ya29.secret-token"

	tests := []struct {
		name       string
		redact     bool
		wantSecret bool
	}{
		{"redacted", true, false},
		{"raw", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "run.log")
			logger, err := NewLogger(LogConfig{Level: DEBUG, OutputFile: logPath, RedactSensitive: tt.redact})
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			logger.Debug("HTTP request", F("authorization", "Bearer "+token))
			if err := logger.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			data, err := os.ReadFile(logPath)
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.Contains(string(data), token); got != tt.wantSecret {
				t.Errorf("token present = %v, want %v: %s", got, tt.wantSecret, data)
			}
		})
	}
}

func TestNewLogger_LogFileUnderRegularFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLogger(LogConfig{Level: INFO, OutputFile: filepath.Join(blocker, "gdmirror.log")}); err == nil {
		t.Error("expected an error when the log directory is a file")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()
	if config.Level != INFO || !config.EnableConsole || !config.RedactSensitive {
		t.Errorf("DefaultLogConfig() = %+v", config)
	}
}
