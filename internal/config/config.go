package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Engine   EngineConfig   `yaml:"engine"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// EngineConfig holds the rule and gate thresholds.
type EngineConfig struct {
	SimilarityFloor        float64 `yaml:"similarity_floor"`
	OverloadScoreFloor     float64 `yaml:"overload_score_floor"`
	OverloadAltFloor       float64 `yaml:"overload_alt_floor"`
	ExpertiseSimilarityBar float64 `yaml:"expertise_similarity_bar"`
	TZExpertiseGap         float64 `yaml:"tz_expertise_gap"`
	FairRecentCap          int     `yaml:"fair_recent_cap"`
	FairActiveCap          int     `yaml:"fair_active_cap"`
	SkillGapFloor          float64 `yaml:"skill_gap_floor"`
	ConfidenceLow          float64 `yaml:"confidence_low"`
	ConfidenceMedium       float64 `yaml:"confidence_medium"`
}

// ScoringConfig holds the scoring thresholds plus the per-priority
// weight rows. Each row must sum to 1.0.
type ScoringConfig struct {
	WorkloadCapacity  float64 `yaml:"workload_capacity"`
	OverloadThreshold float64 `yaml:"overload_threshold"`
	ISTWindowStartUTC float64 `yaml:"ist_window_start_utc"`
	ISTWindowEndUTC   float64 `yaml:"ist_window_end_utc"`
	TZBoostCritical   float64 `yaml:"tz_boost_critical"`
	TZBoostExpert     float64 `yaml:"tz_boost_expert"`
	ExpertSolvedCount int     `yaml:"expert_solved_count"`

	Weights map[string]WeightRow `yaml:"weights"`
}

type WeightRow struct {
	Similarity   float64 `yaml:"similarity"`
	Skill        float64 `yaml:"skill"`
	Availability float64 `yaml:"availability"`
	Workload     float64 `yaml:"workload"`
	Timezone     float64 `yaml:"timezone"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Enabled: true,
		},
		Engine: EngineConfig{
			SimilarityFloor:        0.70,
			OverloadScoreFloor:     0.3,
			OverloadAltFloor:       0.5,
			ExpertiseSimilarityBar: 0.8,
			TZExpertiseGap:         0.15,
			FairRecentCap:          5,
			FairActiveCap:          8,
			SkillGapFloor:          0.4,
			ConfidenceLow:          0.30,
			ConfidenceMedium:       0.50,
		},
		Scoring: ScoringConfig{
			WorkloadCapacity:  30.0,
			OverloadThreshold: 20.0,
			ISTWindowStartUTC: 2.5,
			ISTWindowEndUTC:   12.5,
			TZBoostCritical:   0.5,
			TZBoostExpert:     0.6,
			ExpertSolvedCount: 3,
			Weights: map[string]WeightRow{
				"Critical": {Similarity: 0.30, Skill: 0.25, Availability: 0.15, Workload: 0.10, Timezone: 0.20},
				"High":     {Similarity: 0.25, Skill: 0.25, Availability: 0.20, Workload: 0.15, Timezone: 0.15},
				"Medium":   {Similarity: 0.20, Skill: 0.25, Availability: 0.20, Workload: 0.20, Timezone: 0.15},
				"Low":      {Similarity: 0.15, Skill: 0.15, Availability: 0.15, Workload: 0.40, Timezone: 0.15},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for _, p := range []string{"Critical", "High", "Medium", "Low"} {
		row, ok := c.Scoring.Weights[p]
		if !ok {
			return fmt.Errorf("scoring.weights: missing row for priority %s", p)
		}
		sum := row.Similarity + row.Skill + row.Availability + row.Workload + row.Timezone
		if math.Abs(sum-1.0) > 1e-9 {
			return fmt.Errorf("scoring.weights.%s: sums to %.12f, must sum to 1.0", p, sum)
		}
	}
	if c.Engine.ConfidenceLow > c.Engine.ConfidenceMedium {
		return fmt.Errorf("engine: confidence_low %.2f exceeds confidence_medium %.2f",
			c.Engine.ConfidenceLow, c.Engine.ConfidenceMedium)
	}
	if c.Scoring.ISTWindowStartUTC >= c.Scoring.ISTWindowEndUTC {
		return fmt.Errorf("scoring: ist window start %.2f not before end %.2f",
			c.Scoring.ISTWindowStartUTC, c.Scoring.ISTWindowEndUTC)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIAGE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TRIAGE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TRIAGE_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TRIAGE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TRIAGE_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("TRIAGE_NATS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.NATS.Enabled = b
		}
	}
	if v := os.Getenv("TRIAGE_SIMILARITY_FLOOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.SimilarityFloor = f
		}
	}
	if v := os.Getenv("TRIAGE_FAIR_RECENT_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.FairRecentCap = n
		}
	}
	if v := os.Getenv("TRIAGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
