package main

import (
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/ishaanzatey/incident-handler/internal/config"
	"github.com/ishaanzatey/incident-handler/internal/version"
)

// Default values for server configuration
const (
	DefaultPort        = config.DefaultPort
	DefaultEnvironment = config.DefaultEnvironment
	DefaultLogLevel    = config.DefaultLogLevel
)

// Help and version text
const (
	AppName        = "Incident Handler"
	AppDescription = "ServiceNow incident auto-resolution pipeline with a live dashboard"
)

// ServerFlags holds all command-line flags for the incident handler server.
// ServiceNow, database, and pipeline settings are configured through
// configs/config.yaml and environment variables; flags cover only the
// server surface.
type ServerFlags struct {
	// HTTP server port number
	Port string
	// Deployment environment (development/production)
	Environment string
	// Logging verbosity level (debug/info/warn/error)
	LogLevel string

	// Show help information and exit
	Help bool
	// Show version information and exit
	Version bool
}

// parseFlags parses command-line flags and returns a ServerFlags struct.
func parseFlags() *ServerFlags {
	f := &ServerFlags{}

	flag.StringVar(&f.Port, "port", DefaultPort,
		fmt.Sprintf("Server port number (default: %s)", DefaultPort))
	flag.StringVar(&f.Environment, "env", DefaultEnvironment,
		fmt.Sprintf("Deployment environment: %s, %s (default: %s)",
			config.ValidEnvironmentDevelopment, config.ValidEnvironmentProduction, DefaultEnvironment))
	flag.StringVar(&f.LogLevel, "log-level", DefaultLogLevel,
		fmt.Sprintf("Log level: %s, %s, %s, %s (default: %s)",
			config.ValidLogLevelDebug, config.ValidLogLevelInfo,
			config.ValidLogLevelWarn, config.ValidLogLevelError, DefaultLogLevel))

	flag.BoolVar(&f.Help, "help", false, "Show help information and exit")
	flag.BoolVar(&f.Help, "h", false, "Show help information and exit (short form)")
	flag.BoolVar(&f.Version, "version", false, "Show version information and exit")
	flag.BoolVar(&f.Version, "v", false, "Show version information and exit (short form)")

	flag.Parse()

	return f
}

// showHelp displays help information for the incident handler server.
func (f *ServerFlags) showHelp() {
	fmt.Printf("%s - %s\n", AppName, AppDescription)
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  incident-handler [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  Server Configuration:")
	fmt.Println("    -port string")
	fmt.Println("          Server port (default: 8000)")
	fmt.Println("    -env string")
	fmt.Println("          Environment: development, production (default: development)")
	fmt.Println("    -log-level string")
	fmt.Println("          Log level: debug, info, warn, error (default: info)")
	fmt.Println()
	fmt.Println("  ServiceNow & Pipeline:")
	fmt.Println("    Configured via configs/config.yaml and environment variables:")
	fmt.Println("    - SN_URL, SN_USERNAME, SN_PASSWORD, ASSIGNMENT_GROUP_SYS_ID (required)")
	fmt.Println("    - DATABASE_URL or PG_HOST/PG_PORT/PG_DB/PG_USER/PG_PASSWORD (optional)")
	fmt.Println("    - PIPELINE_ENABLED=true (or pipeline.enabled in config.yaml) for scheduled runs")
	fmt.Println()
	fmt.Println("  General:")
	fmt.Println("    -help, -h")
	fmt.Println("          Show this help information")
	fmt.Println("    -version, -v")
	fmt.Println("          Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with default settings")
	fmt.Println("  incident-handler")
	fmt.Println()
	fmt.Println("  # Start in production mode on a custom port")
	fmt.Println("  incident-handler -env production -port 8080")
}

// showVersion displays version and capability information.
func (f *ServerFlags) showVersion() {
	fmt.Printf("%s %s\n", AppName, version.GetVersion())
	fmt.Printf("Build info: %s\n", version.GetBuildInfo())
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Println("Capabilities:")
	fmt.Println("  - ServiceNow incident auto-resolution")
	fmt.Println("  - Real-time processing stream (websocket)")
	fmt.Println("  - Persistent audit trail with in-memory fallback")
}

// validate checks that all provided flag values are valid.
func (f *ServerFlags) validate() error {
	if f.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	validEnvs := []string{config.ValidEnvironmentDevelopment, config.ValidEnvironmentProduction}
	validEnv := false
	for _, env := range validEnvs {
		if f.Environment == env {
			validEnv = true
			break
		}
	}
	if !validEnv {
		return fmt.Errorf("invalid environment: %s (must be one of: %s)", f.Environment, strings.Join(validEnvs, ", "))
	}

	validLevels := []string{config.ValidLogLevelDebug, config.ValidLogLevelInfo, config.ValidLogLevelWarn, config.ValidLogLevelError}
	validLevel := false
	for _, level := range validLevels {
		if f.LogLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", f.LogLevel, strings.Join(validLevels, ", "))
	}

	return nil
}

// Interface methods for the config package.

// GetPort returns the configured server port number.
func (f *ServerFlags) GetPort() string {
	return f.Port
}

// GetEnvironment returns the configured deployment environment.
func (f *ServerFlags) GetEnvironment() string {
	return f.Environment
}

// GetLogLevel returns the configured logging verbosity level.
func (f *ServerFlags) GetLogLevel() string {
	return f.LogLevel
}
