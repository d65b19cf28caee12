package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/northdesk/triage/internal/api"
	"github.com/northdesk/triage/internal/config"
	"github.com/northdesk/triage/internal/engine"
	"github.com/northdesk/triage/internal/events"
	"github.com/northdesk/triage/internal/scoring"
	"github.com/northdesk/triage/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(os.Getenv("TRIAGE_LOG_LEVEL"))}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// NATS (optional)
	var eventsClient events.Client
	if cfg.NATS.Enabled && cfg.NATS.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to nats, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to nats")
		}
	}

	// Scorer and engine
	scorer, err := scoring.NewScorer(weightTable(cfg), scoringParams(cfg), logger)
	if err != nil {
		logger.Error("invalid scoring weights", "error", err)
		os.Exit(1)
	}
	eng := engine.New(db, scorer, engineConfig(cfg), logger)

	// Event-driven intake
	if eventsClient != nil {
		if err := events.SubscribeAssignmentRequests(eventsClient, eng, db, logger); err != nil {
			logger.Warn("failed to subscribe to assignment requests", "error", err)
		} else {
			logger.Info("subscribed to assignment requests", "subject", events.SubjectAssignmentRequest)
		}
	}

	// API server
	router := api.NewRouter(db, eventsClient, eng, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsRouter := api.NewMetricsRouter()
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func weightTable(cfg *config.Config) scoring.WeightTable {
	table := make(scoring.WeightTable, len(cfg.Scoring.Weights))
	for p, row := range cfg.Scoring.Weights {
		table[store.Priority(p)] = scoring.WeightSet{
			Similarity:   row.Similarity,
			Skill:        row.Skill,
			Availability: row.Availability,
			Workload:     row.Workload,
			Timezone:     row.Timezone,
		}
	}
	return table
}

func scoringParams(cfg *config.Config) scoring.Params {
	return scoring.Params{
		WorkloadCapacity:  cfg.Scoring.WorkloadCapacity,
		OverloadThreshold: cfg.Scoring.OverloadThreshold,
		ISTWindowStartUTC: cfg.Scoring.ISTWindowStartUTC,
		ISTWindowEndUTC:   cfg.Scoring.ISTWindowEndUTC,
		TZBoostCritical:   cfg.Scoring.TZBoostCritical,
		TZBoostExpert:     cfg.Scoring.TZBoostExpert,
		ExpertSolvedCount: cfg.Scoring.ExpertSolvedCount,
	}
}

func engineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()
	ec.SimilarityFloor = cfg.Engine.SimilarityFloor
	ec.OverloadScoreFloor = cfg.Engine.OverloadScoreFloor
	ec.OverloadAltFloor = cfg.Engine.OverloadAltFloor
	ec.ExpertiseSimilarityBar = cfg.Engine.ExpertiseSimilarityBar
	ec.TZExpertiseGap = cfg.Engine.TZExpertiseGap
	ec.FairRecentCap = cfg.Engine.FairRecentCap
	ec.FairActiveCap = cfg.Engine.FairActiveCap
	ec.SkillGapFloor = cfg.Engine.SkillGapFloor
	ec.ConfidenceLow = cfg.Engine.ConfidenceLow
	ec.ConfidenceMedium = cfg.Engine.ConfidenceMedium
	return ec
}
