package config

import "time"

// Default configuration values
const (
	// DefaultPort is the default HTTP server port
	DefaultPort = "8000"

	// DefaultEnvironment is the default deployment environment
	DefaultEnvironment = "development"

	// DefaultLogLevel is the default logging level
	DefaultLogLevel = "info"
)

// Valid environment values
const (
	ValidEnvironmentDevelopment = "development"
	ValidEnvironmentProduction  = "production"
)

// Valid log level values
const (
	ValidLogLevelDebug = "debug"
	ValidLogLevelInfo  = "info"
	ValidLogLevelWarn  = "warn"
	ValidLogLevelError = "error"
)

// Pipeline defaults
const (
	// DefaultPipelineInterval is the default interval between scheduled runs
	DefaultPipelineInterval = 15 * time.Minute

	// DefaultRunTimeout bounds a complete pipeline run
	DefaultRunTimeout = 10 * time.Minute

	// DefaultIncidentTimeout bounds the remote operations for a single incident
	DefaultIncidentTimeout = 45 * time.Second

	// DefaultRequestTimeout is the per-request timeout against the ticketing API
	DefaultRequestTimeout = 30 * time.Second
)

// Cache defaults
const (
	// DefaultStatisticsTTL is how long cached dashboard statistics stay fresh
	DefaultStatisticsTTL = 15 * time.Second
)
