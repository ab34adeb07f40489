package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestErrorWithErrJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithConfig(LogConfig{Level: "INFO", Format: "json", Output: &buf}); err != nil {
		t.Fatal(err)
	}

	ErrorWithErr(context.Background(), "login failed", errors.New("boom"), "page", "login")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "login failed" {
		t.Errorf("Expected msg 'login failed', got %v", entry["msg"])
	}
	if entry["error"] != "boom" {
		t.Errorf("Expected error 'boom', got %v", entry["error"])
	}
	if entry["page"] != "login" {
		t.Errorf("Expected page 'login', got %v", entry["page"])
	}
}

func TestDebugRequiresDetailedLogging(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithConfig(LogConfig{Level: "DEBUG", Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output without detailed logging, got %q", buf.String())
	}

	if err := InitWithConfig(LogConfig{Level: "INFO", Format: "text", DetailedLogging: true, Output: &buf}); err != nil {
		t.Fatal(err)
	}
	defer InitWithConfig(LogConfig{Level: "INFO", Output: &bytes.Buffer{}})

	Debug(context.Background(), "shown")
	out := buf.String()
	if !strings.Contains(out, "shown") {
		t.Errorf("Expected debug line, got %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("Expected caller source in detailed logs, got %q", out)
	}
}

func TestOperationTimerEndWithError(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithConfig(LogConfig{Level: "INFO", Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}

	op := StartOperation(context.Background(), "cei.Test", "broker", "386")
	op.EndWithError(errors.New("layout changed"))

	out := buf.String()
	for _, want := range []string{"Operation failed", "operation=cei.Test", "broker=386", "layout changed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}
