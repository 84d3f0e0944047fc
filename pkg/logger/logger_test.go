package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestInitLogger_ValidLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"upper case", "DEBUG", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.level)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			logger := GetLogger()
			if logger == nil {
				t.Fatal("GetLogger() returned nil")
			}

			level, err := ParseLevel(tt.level)
			if err != nil || level != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.level, level, err, tt.want)
			}
		})
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger("invalid")
	if err == nil {
		t.Error("expected error for invalid log level, got nil")
	}
}

func TestInitLoggerWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := InitLoggerWithWriter(&buf, "warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	GetLogger().Info("hidden message")
	GetLogger().Warn("branch mismatch", "course", "Oni")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "branch mismatch") || !strings.Contains(out, "course=Oni") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestGetLogger_BeforeInit(t *testing.T) {
	// globalLoggerをリセット
	globalLogger = nil

	logger := GetLogger()
	if logger == nil {
		t.Error("GetLogger() should return default logger when not initialized")
	}

	// デフォルトロガーが返されることを確認
	if logger != slog.Default() {
		t.Error("GetLogger() should return slog.Default() when not initialized")
	}
}

func TestGetLogger_AfterInit(t *testing.T) {
	err := InitLogger("info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger := GetLogger()
	if logger == nil {
		t.Error("GetLogger() returned nil after initialization")
	}

	if logger != globalLogger {
		t.Error("GetLogger() should return the initialized logger")
	}
}
