package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONWithStack(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json").With("component", "test")

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record should be filtered: %s", buf.String())
	}

	logger.Error("boom", "run_id", "abc")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, buf.String())
	}
	if rec["component"] != "test" || rec["run_id"] != "abc" {
		t.Errorf("attributes missing: %v", rec)
	}
	if st, _ := rec["stacktrace"].(string); !strings.Contains(st, "goroutine") {
		t.Errorf("expected stacktrace, got %q", st)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug", "text").Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected text output: %s", buf.String())
	}
}
