package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetOutput(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelWarn)

	Info("hidden")
	Warn("decision", "verdict", "block")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "verdict=block") {
		t.Errorf("output = %q, want verdict attribute", out)
	}
}

func TestSetup(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	path := filepath.Join(t.TempDir(), "hookgate.log")
	t.Setenv(EnvPath, path)
	t.Setenv(EnvLevel, "debug")

	closeLog := Setup()
	Debug("gate evaluated", "tool", "Bash")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "tool=Bash") {
		t.Errorf("log file = %q, want record", data)
	}
}

func TestSetupUnwritable(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	t.Setenv(EnvPath, filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	closeLog := Setup()
	defer closeLog()

	Info("dropped")
}
