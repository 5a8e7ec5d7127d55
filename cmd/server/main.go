package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ishaanzatey/incident-handler/internal/config"
	"github.com/ishaanzatey/incident-handler/internal/server"
	"github.com/ishaanzatey/incident-handler/pkg/logger"
)

// main is the entry point for the incident handler dashboard server.
// It performs the following operations:
//  1. Parses command-line flags for server configuration
//  2. Loads environment variables from .env file if present
//  3. Loads configuration from YAML with env and flag overrides
//  4. Validates the required ServiceNow settings (fatal when missing)
//  5. Initializes the HTTP server, broadcaster, recorder, and pipeline
//  6. Begins listening for HTTP requests
func main() {
	flags := parseFlags()

	if flags.Help {
		flags.showHelp()
		os.Exit(0)
	}
	if flags.Version {
		flags.showVersion()
		os.Exit(0)
	}
	if err := flags.validate(); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.LoadWithFlags(flags)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	srv := server.New(cfg)

	logger.Infof("Starting on port %s", cfg.Port)
	logger.Infof("Environment: %s", cfg.Environment)
	logger.Infof("Log level: %s", cfg.LogLevel)

	if cfg.Pipeline.Enabled {
		logger.Infof("Pipeline: enabled (interval: %s)", cfg.Pipeline.Interval)
	} else {
		logger.Infof("Pipeline: manual trigger only")
	}

	if cfg.Cache.Enabled {
		logger.Infof("Statistics cache: enabled (address: %s)", cfg.Cache.Address)
	} else {
		logger.Infof("Statistics cache: disabled")
	}

	if err := srv.Start(); err != nil {
		logger.Fatalf("Server failed to start: %v", err)
	}
}
