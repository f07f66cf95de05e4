package log_test

import (
	"bytes"
	"strings"
	"testing"

	xlog "xwaylandbridge/internal/log"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := xlog.New(xlog.WARN, &buf)

	l.Debug("should not appear")
	l.Info("should not appear either")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing logged below WARN, got %q", buf.String())
	}

	l.Warn("visible warning")
	if !strings.Contains(buf.String(), "visible warning") {
		t.Fatalf("expected WARN to be logged at WARN level, got %q", buf.String())
	}
}

// Error always logs regardless of configured level.
func TestErrorAlwaysLogs(t *testing.T) {
	var buf bytes.Buffer
	l := xlog.New(xlog.ERROR, &buf)
	l.Error("boom: %d", 42)
	if !strings.Contains(buf.String(), "boom: 42") {
		t.Fatalf("expected formatted error message, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]xlog.Level{
		"error":   xlog.ERROR,
		"warn":    xlog.WARN,
		"warning": xlog.WARN,
		"":        xlog.INFO,
		"info":    xlog.INFO,
		"debug":   xlog.DEBUG,
		"verbose": xlog.VERBOSE,
	}
	for s, want := range cases {
		got, err := xlog.ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %s", s, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := xlog.ParseLevel("bogus"); err == nil {
		t.Fatal("expected an error for an unknown level name")
	}
}
