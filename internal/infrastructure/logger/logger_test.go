package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"fatal":   LevelFatal,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestConfig_LevelFromYAML(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte("level: warn\nformat: json\n"), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Level != LevelWarn {
		t.Errorf("expected warn level, got %v", cfg.Level)
	}
}

func TestLogrusLogger_JSONOutputCarriesFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Fields = map[string]string{"service": "test"}

	log := NewLogrusLogger(cfg)
	var buf bytes.Buffer
	log.SetOutput(&buf)

	child := log.WithField("component", "hub")
	child.Info("relay started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "relay started" {
		t.Errorf("unexpected message field: %v", entry["message"])
	}
	if entry["component"] != "hub" {
		t.Errorf("child field missing: %v", entry)
	}
	if entry["service"] != "test" {
		t.Errorf("static field missing: %v", entry)
	}
}

func TestLogrusLogger_ChildSetLevelAppliesToParent(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "text"
	log := NewLogrusLogger(cfg)
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithField("component", "x").SetLevel(LevelError)
	log.Info("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
}
