package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
log_level: debug
log_format: text
ingest:
  rest:
    enabled: true
    addr: ":7070"
evaluation:
  max_suggestions: 5
storage:
  enabled: true
  driver: sqlite
  dsn: "file:test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Fatalf("log settings not applied: %+v", cfg)
	}
	if cfg.Ingest.REST.Addr != ":7070" {
		t.Fatalf("rest addr = %q", cfg.Ingest.REST.Addr)
	}
	if cfg.Evaluation.MaxSuggestions != 5 {
		t.Fatalf("max suggestions = %d", cfg.Evaluation.MaxSuggestions)
	}
	// Untouched fields keep their defaults.
	if cfg.Evaluation.IdentityNudgeMinChars != 50 || cfg.Evaluation.PurposeNudgeMinChars != 100 {
		t.Fatalf("nudge defaults lost: %+v", cfg.Evaluation)
	}
	if cfg.Ingest.ChannelBuffer != 10000 {
		t.Fatalf("channel buffer default lost: %d", cfg.Ingest.ChannelBuffer)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"log_level": "warn", "api": {"enabled": true, "addr": ":9999"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" || cfg.API.Addr != ":9999" {
		t.Fatalf("json config not applied: %+v", cfg)
	}
}

func TestLoadRejectsEmptyFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", "  \n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for empty config")
	}
}

func TestValidateKafkaTriple(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ingest.Kafka.Enabled = true
	cfg.Ingest.Kafka.Brokers = []string{"localhost:9092"}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for kafka without topic and group")
	}
	cfg.Ingest.Kafka.Topic = "segments"
	cfg.Ingest.Kafka.GroupID = "callwire"
	if err := Validate(cfg); err != nil {
		t.Fatalf("kafka config should validate: %v", err)
	}
}

func TestValidateNudgeOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Evaluation.IdentityNudgeMinChars = 200
	cfg.Evaluation.PurposeNudgeMinChars = 100
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error when purpose floor is below identity floor")
	}
}

func TestValidateLogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFormat = "xml"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown log format")
	}
}

func TestManagerReload(t *testing.T) {
	path := writeConfig(t, "config.yaml", "log_level: info\n")
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if mgr.Get().LogLevel != "info" {
		t.Fatalf("initial load wrong: %q", mgr.Get().LogLevel)
	}
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	cfg, err := mgr.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("reload not applied: %q", cfg.LogLevel)
	}
}

func TestStaticManagerNeverReloads(t *testing.T) {
	mgr := NewStatic(nil)
	if mgr.Get() == nil {
		t.Fatalf("static manager has no config")
	}
	needs, err := mgr.NeedsReload()
	if err != nil || needs {
		t.Fatalf("static manager should never need reload: %v %v", needs, err)
	}
	if _, err := mgr.Reload(); err == nil {
		t.Fatalf("expected reload error without a backing file")
	}
}
