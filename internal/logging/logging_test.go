package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewTextFormatByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("starting cutover", "group", "web")
	if !strings.Contains(buf.String(), "group=web") {
		t.Errorf("expected key=value text output, got %q", buf.String())
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("starting cutover", "group", "web")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["group"] != "web" {
		t.Errorf("got %v, want group=web", record["group"])
	}
}

func TestNewDebugLowersLevel(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Options{Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line should be suppressed at the default level, got %q", buf.String())
	}

	logger, err = New(Options{Debug: true, Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("visible")
	if buf.Len() == 0 {
		t.Error("debug line should be emitted with Debug set")
	}
}
