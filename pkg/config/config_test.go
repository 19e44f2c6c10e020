package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
data:
  dir: data
  new_day_file: data/new_day.csv
  sentiment_export: data/sentiment.json
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected default environment, got %q", cfg.Environment)
	}
	if cfg.Pipeline.Horizon != 5 || cfg.Pipeline.NewsWindow != 3 || cfg.Pipeline.MinHistory != 20 {
		t.Fatalf("unexpected pipeline defaults %+v", cfg.Pipeline)
	}
	if cfg.Kafka.Topic != "tunpulse.anomalies" {
		t.Fatalf("unexpected kafka topic default %q", cfg.Kafka.Topic)
	}
	if cfg.Cache.Backend != "memory" {
		t.Fatalf("unexpected cache backend default %q", cfg.Cache.Backend)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: production\n")); err == nil {
		t.Fatalf("expected validation error for missing data paths")
	}
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	body := minimalConfig + `
kafka:
  enabled: true
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error when kafka enabled without brokers")
	}
}

func TestValidateRedisNeedsAddr(t *testing.T) {
	body := minimalConfig + `
cache:
  backend: redis
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error when redis backend has no address")
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("TUNPULSE_DATA_DIR", "/tmp/override")
	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Data.Dir != "/tmp/override" {
		t.Fatalf("env override not applied, got %q", cfg.Data.Dir)
	}
}
