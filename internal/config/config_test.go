package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"TRIAGE_PORT", "TRIAGE_METRICS_PORT", "TRIAGE_ADMIN_TOKEN",
		"TRIAGE_DATABASE_URL", "TRIAGE_NATS_URL", "TRIAGE_NATS_ENABLED",
		"TRIAGE_SIMILARITY_FLOOR", "TRIAGE_FAIR_RECENT_CAP", "TRIAGE_LOG_LEVEL",
	}
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.NATS.URL)
	}
	if cfg.Engine.SimilarityFloor != 0.70 {
		t.Errorf("expected similarity floor 0.70, got %f", cfg.Engine.SimilarityFloor)
	}
	if cfg.Engine.FairRecentCap != 5 || cfg.Engine.FairActiveCap != 8 {
		t.Errorf("fair caps: got %d/%d", cfg.Engine.FairRecentCap, cfg.Engine.FairActiveCap)
	}
	if cfg.Scoring.WorkloadCapacity != 30.0 || cfg.Scoring.OverloadThreshold != 20.0 {
		t.Errorf("workload params: got %f/%f", cfg.Scoring.WorkloadCapacity, cfg.Scoring.OverloadThreshold)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging: got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}

	for _, p := range []string{"Critical", "High", "Medium", "Low"} {
		row := cfg.Scoring.Weights[p]
		sum := row.Similarity + row.Skill + row.Availability + row.Workload + row.Timezone
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("weight row %s sums to %f", p, sum)
		}
	}
	if cfg.Scoring.Weights["Critical"].Similarity != 0.30 {
		t.Errorf("critical similarity weight: got %f", cfg.Scoring.Weights["Critical"].Similarity)
	}
	if cfg.Scoring.Weights["Low"].Workload != 0.40 {
		t.Errorf("low workload weight: got %f", cfg.Scoring.Weights["Low"].Workload)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRIAGE_PORT", "9100")
	t.Setenv("TRIAGE_DATABASE_URL", "postgres://test/db")
	t.Setenv("TRIAGE_NATS_ENABLED", "false")
	t.Setenv("TRIAGE_SIMILARITY_FLOOR", "0.80")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://test/db" {
		t.Errorf("got database URL %s", cfg.Database.URL)
	}
	if cfg.NATS.Enabled {
		t.Error("expected nats disabled")
	}
	if cfg.Engine.SimilarityFloor != 0.80 {
		t.Errorf("got similarity floor %f", cfg.Engine.SimilarityFloor)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9200
engine:
  fair_recent_cap: 3
scoring:
  overload_threshold: 15
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("expected port 9200, got %d", cfg.Server.Port)
	}
	if cfg.Engine.FairRecentCap != 3 {
		t.Errorf("expected fair recent cap 3, got %d", cfg.Engine.FairRecentCap)
	}
	if cfg.Scoring.OverloadThreshold != 15 {
		t.Errorf("expected overload threshold 15, got %f", cfg.Scoring.OverloadThreshold)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("metrics port default lost: %d", cfg.Server.MetricsPort)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
scoring:
  weights:
    Critical:
      similarity: 0.9
      skill: 0.9
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for weight row not summing to 1.0")
	}
}

func TestLoadRejectsInvertedConfidenceBands(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
engine:
  confidence_low: 0.8
  confidence_medium: 0.5
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for confidence_low above confidence_medium")
	}
}
