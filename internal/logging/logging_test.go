package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer
	oldLogger := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f()
	defaultLogger = oldLogger
	return buf.String()
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &m); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	return m
}

func TestInitLoggerWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	oldOut, oldLogger := output, defaultLogger
	output = &buf
	defer func() { output, defaultLogger = oldOut, oldLogger; slog.SetDefault(oldLogger) }()

	InitLogger(LevelWarn, FormatJSON)
	Info("hidden")
	Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	m := decode(t, out)
	if m["msg"] != "shown" || m["k"] != float64(1) {
		t.Errorf("entry = %v", m)
	}
	if _, err := time.Parse(time.RFC3339, m["time"].(string)); err != nil {
		t.Errorf("time not RFC3339: %v", m["time"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	oldOut, oldLogger := output, defaultLogger
	output = &buf
	defer func() { output, defaultLogger = oldOut, oldLogger; slog.SetDefault(oldLogger) }()

	InitLogger(LevelDebug, FormatText)
	Debug("hello", "file", "a.cchart")
	if !strings.Contains(buf.String(), "msg=hello file=a.cchart") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if got != tt.want || (err == nil) != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}

	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID() = %q", got)
	}
	if GetRunID(context.Background()) != "" {
		t.Error("empty context should have no run id")
	}

	out := captureLogOutput(func() { InfoContext(ctx, "started") })
	if m := decode(t, out); m["run_id"] != "run-123" {
		t.Errorf("entry = %v", m)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	out := captureLogOutput(func() {
		DebugContext(ctx, "d")
		WarnContext(ctx, "w")
		ErrorContext(ctx, "e")
		Error("plain")
	})
	if n := strings.Count(out, "\n"); n != 4 {
		t.Errorf("got %d lines, want 4", n)
	}
}

func TestDiagnostic(t *testing.T) {
	ctx := WithRunID(context.Background(), "r")
	out := captureLogOutput(func() {
		Diagnostic(ctx, "song.cchart", cerrors.Warnf(3, 5, "unknown chord quality %q", "x9"))
	})
	m := decode(t, out)
	if m["level"] != "WARN" || m["msg"] != "chart_diagnostic" {
		t.Errorf("entry = %v", m)
	}
	if m["line"] != float64(3) || m["column"] != float64(5) || m["severity"] != "warning" {
		t.Errorf("entry = %v", m)
	}

	out = captureLogOutput(func() {
		Diagnostic(ctx, "song.cchart", cerrors.Diagnostic{Line: 1, Severity: cerrors.SeverityError, Message: "bad"})
	})
	if m := decode(t, out); m["level"] != "ERROR" {
		t.Errorf("entry = %v", m)
	}
}

func TestRenderEvents(t *testing.T) {
	ctx := context.Background()
	out := captureLogOutput(func() {
		RenderComplete(ctx, "a.cchart", "svg", 2, 1500*time.Millisecond, "cached", false)
	})
	m := decode(t, out)
	if m["msg"] != "render_complete" || m["pages"] != float64(2) || m["duration_ms"] != float64(1500) || m["cached"] != false {
		t.Errorf("entry = %v", m)
	}

	out = captureLogOutput(func() { RenderFailed(ctx, "b.cchart", errors.New("boom")) })
	if m := decode(t, out); m["error"] != "boom" || m["level"] != "ERROR" {
		t.Errorf("entry = %v", m)
	}

	out = captureLogOutput(func() { CacheEvent(ctx, "chart", true) })
	if m := decode(t, out); m["layer"] != "chart" || m["hit"] != true {
		t.Errorf("entry = %v", m)
	}
}

func TestGetLogger(t *testing.T) {
	if GetLogger() == nil {
		t.Error("GetLogger() returned nil")
	}
}
