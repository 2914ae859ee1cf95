package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/samvad-hq/minesweeper-client/internal/config"
)

func TestInitWriterHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := InitWriter(&config.Config{LogLevel: "warn"}, &buf)
	if err != nil {
		t.Fatalf("InitWriter: %v", err)
	}

	log.InfoObj("hidden", "k", 1)
	log.WarnObj("shown", "game", map[string]any{"id": 7})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "shown" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Errorf("missing ts field: %v", entry)
	}
	game, ok := entry["game"].(map[string]any)
	if !ok || game["id"] != float64(7) {
		t.Errorf("game field = %v", entry["game"])
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got.String() != "info" {
		t.Fatalf("parseLevel = %s", got)
	}
}

func TestPackageErrorObjAndClose(t *testing.T) {
	S = nil
	ErrorObj("before init", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}

	var buf bytes.Buffer
	if _, err := InitWriter(&config.Config{LogLevel: "info"}, &buf); err != nil {
		t.Fatalf("InitWriter: %v", err)
	}
	t.Cleanup(func() { S = nil })

	ErrorObj("command failed", "command_error", map[string]any{"kind": "network"})
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "command failed" || entry["level"] != "error" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["stacktrace"]; !ok {
		t.Errorf("expected stacktrace at error level: %v", entry)
	}
}
