package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_DefaultsToInfoLevel(t *testing.T) {
	log := New()

	if log.GetLevel() != slog.LevelInfo {
		t.Errorf("expected default level to be Info, got %v", log.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlogLogger_ImplementsInterface(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelWarn)

	log.Debug("debug message")
	log.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("expected debug/info to be filtered at WARN level, got: %s", buf.String())
	}

	log.Warn("fallback rule set used", "season", "2025")
	out := buf.String()
	if !strings.Contains(out, "fallback rule set used") || !strings.Contains(out, "season=2025") {
		t.Errorf("expected warn record with attrs, got: %s", out)
	}
}

func TestSlogLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelError)

	log.Info("hidden")
	log.SetLevel(slog.LevelDebug)
	log.Debug("visible")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record should have been filtered before SetLevel")
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug record should pass after SetLevel")
	}
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo)

	child := log.With("run_id", "abc")
	child.Info("standings recomputed")

	if !strings.Contains(buf.String(), "run_id=abc") {
		t.Errorf("expected child attrs in output, got: %s", buf.String())
	}

	// Level changes on the parent apply to the child.
	log.SetLevel(slog.LevelError)
	buf.Reset()
	child.Info("should be filtered")
	if buf.Len() > 0 {
		t.Errorf("expected child to follow parent level, got: %s", buf.String())
	}
}

func TestSlogLogger_HTTPLogging(t *testing.T) {
	log := New()

	if log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging to be disabled by default")
	}
	log.EnableHTTPLogging()
	if !log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging to be enabled")
	}
	child := log.With("component", "api")
	if !child.IsHTTPLoggingEnabled() {
		t.Error("expected child to share the HTTP logging switch")
	}
	log.DisableHTTPLogging()
	if log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging to be disabled")
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	// Must not panic and must not be enabled for errors.
	log.Error("dropped")
	if log.GetLevel() <= slog.LevelError {
		t.Errorf("expected discard logger above error level, got %v", log.GetLevel())
	}
}
