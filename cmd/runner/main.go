package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ishaanzatey/incident-handler/internal/config"
	"github.com/ishaanzatey/incident-handler/pkg/broadcaster"
	"github.com/ishaanzatey/incident-handler/pkg/logger"
	"github.com/ishaanzatey/incident-handler/pkg/pipeline"
	"github.com/ishaanzatey/incident-handler/pkg/recorder"
	"github.com/ishaanzatey/incident-handler/pkg/rules"
	"github.com/ishaanzatey/incident-handler/pkg/servicenow"
)

// main runs a single resolution pass without the dashboard server. Intended
// for external schedulers (cron) and ad-hoc manual runs. The rule database
// is required here: without it there is nothing to match against.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := logger.InitFromConfig(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	ruleStore, err := rules.NewStore(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("Rule store unavailable: %v", err)
	}
	defer ruleStore.Close()

	rec := recorder.New(ctx, cfg.Database.DSN)
	defer rec.Close()

	hub := broadcaster.NewHub()
	defer hub.Stop()

	runner := pipeline.NewRunner(pipeline.Options{
		Store: servicenow.NewClient(
			cfg.ServiceNow.URL, cfg.ServiceNow.Username, cfg.ServiceNow.Password, cfg.ServiceNow.Timeout),
		Finder:            ruleStore,
		Recorder:          rec,
		Emitter:           hub,
		AssignmentGroupID: cfg.ServiceNow.AssignmentGroup,
		RunTimeout:        cfg.Pipeline.RunTimeout,
		IncidentTimeout:   cfg.Pipeline.IncidentTimeout,
	})

	stats, err := runner.Run(ctx)
	if err != nil {
		logger.Errorf("Pipeline run failed: %v", err)
		os.Exit(1)
	}

	logger.Infof("Run %s finished: %d total, %d resolved, %d failed, %d skipped",
		stats.ExecutionID, stats.Total, stats.Success, stats.Failed, stats.Skipped)
}
