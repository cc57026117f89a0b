package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

// captureLog redirects the standard logger for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	prevLevel := GetLevel()
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetLevel(prevLevel)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   LogLevel
		wantOK bool
	}{
		{name: "debug", input: "debug", want: LevelDebug, wantOK: true},
		{name: "info", input: "info", want: LevelInfo, wantOK: true},
		{name: "warn", input: "warn", want: LevelWarn, wantOK: true},
		{name: "warning alias", input: "warning", want: LevelWarn, wantOK: true},
		{name: "error", input: "error", want: LevelError, wantOK: true},
		{name: "case insensitive", input: "DEBUG", want: LevelDebug, wantOK: true},
		{name: "surrounding space", input: " error ", want: LevelError, wantOK: true},
		{name: "unknown falls back to info", input: "verbose", want: LevelInfo, wantOK: false},
		{name: "empty", input: "", want: LevelInfo, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("Log levels should be in ascending order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestSetLevelFiltersMessages(t *testing.T) {
	buf := captureLog(t)

	SetLevel(LevelWarn)
	Debug("hidden debug")
	Info("hidden info")
	Warn("visible warn")
	Error("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below WARN were written: %q", out)
	}
	if !strings.Contains(out, "[WARN] visible warn") {
		t.Errorf("missing warn line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] visible error") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestIsDebugEnabled(t *testing.T) {
	captureLog(t)

	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Error("expected debug to be enabled at LevelDebug")
	}
	SetLevel(LevelInfo)
	if IsDebugEnabled() {
		t.Error("expected debug to be disabled at LevelInfo")
	}
}

func TestComponentLogger(t *testing.T) {
	buf := captureLog(t)
	SetLevel(LevelDebug)

	l := For("scanner")
	l.Debug("row %d", 3)
	l.Info("started")
	l.Warn("slow")
	l.Error("failed: %v", "boom")

	for _, want := range []string{
		"[DEBUG] scanner: row 3",
		"[INFO] scanner: started",
		"[WARN] scanner: slow",
		"[ERROR] scanner: failed: boom",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output %q missing %q", buf.String(), want)
		}
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}
