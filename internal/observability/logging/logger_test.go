package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %s", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got %s", cfg.Format)
	}
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "loud", Format: "json"}, &buf)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %v", zerolog.GlobalLevel())
	}
}

func TestWithSession_AddsField(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "debug", Format: "json"}, &buf)
	defer InitWithWriter(DefaultConfig(), &bytes.Buffer{})

	l := WithTurn("sess-1", 4)
	l.Info().Msg("turn processed")

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", line, err)
	}
	if entry["sessionId"] != "sess-1" {
		t.Errorf("expected sessionId 'sess-1', got %v", entry["sessionId"])
	}
	if entry["turnIndex"] != float64(4) {
		t.Errorf("expected turnIndex 4, got %v", entry["turnIndex"])
	}
	if entry["message"] != "turn processed" {
		t.Errorf("expected message, got %v", entry["message"])
	}
}
