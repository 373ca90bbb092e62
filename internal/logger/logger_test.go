package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-features-mcp/internal/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = config.FormatJSON

	var buf bytes.Buffer
	log := NewWithWriter(cfg, &buf)
	log.Info().Str("component", "test").Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "hello" || entry["component"] != "test" || entry["level"] != "info" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["service"] != "image-features-mcp" {
		t.Errorf("service field missing: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestNewWithWriter_Console(t *testing.T) {
	cfg := config.Default()

	var buf bytes.Buffer
	log := NewWithWriter(cfg, &buf)
	log.Warn().Msg("careful")

	out := buf.String()
	if !strings.Contains(out, "careful") || !strings.Contains(out, "WRN") {
		t.Errorf("unexpected console output: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("console format wrote JSON: %q", out)
	}
}

func TestNewWithWriter_Level(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = config.FormatJSON
	cfg.LogLevel = zerolog.WarnLevel

	var buf bytes.Buffer
	log := NewWithWriter(cfg, &buf)
	log.Info().Msg("dropped")
	log.Debug().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("messages below the level were written: %q", buf.String())
	}

	log.Error().Msg("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("error message missing: %q", buf.String())
	}
}
