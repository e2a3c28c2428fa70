package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelFatal, "FATAL"},
		{Level(99), "LEVEL(99)"},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.want {
			t.Errorf("Level(%d).String() = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(WithOutput(&buf), WithLevel(LevelWarn))

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("Messages below the level should be suppressed, got: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("Messages at or above the level should appear, got: %s", out)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(WithOutput(&buf))

	logger.Debug("hidden")
	logger.SetLevel(LevelDebug)
	logger.Debug("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug message should be filtered at the default level")
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("Debug message should appear after lowering the level")
	}
}

func TestFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(WithOutput(&buf))

	logger.Info("wrote %d run(s)", 3)
	if !strings.Contains(buf.String(), "wrote 3 run(s)") {
		t.Errorf("Expected formatted message, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "[INFO]") {
		t.Errorf("Expected level tag in output, got: %s", buf.String())
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(WithOutput(&buf))

	child := logger.WithField("run", 7)
	child.Info("closed")

	if !strings.Contains(buf.String(), "run=7") {
		t.Errorf("Expected field in output, got: %s", buf.String())
	}

	buf.Reset()
	logger.Info("no fields")
	if strings.Contains(buf.String(), "run=7") {
		t.Errorf("Parent logger should not inherit child fields, got: %s", buf.String())
	}
}
