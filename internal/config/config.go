package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Flags defines the interface for command-line flag access.
// It lets the config package apply server flag overrides without
// depending on the flag implementation in cmd.
type Flags interface {
	GetPort() string
	GetEnvironment() string
	GetLogLevel() string
}

// Load creates a new Config instance using only YAML and environment
// configuration. Suitable for entrypoints without command-line flags.
func Load() *Config {
	return LoadWithFlags(nil)
}

// LoadWithFlags creates a new Config instance by loading configuration
// from configs/config.yaml and applying environment variables and
// command-line flag overrides.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags (server settings only)
//  2. Environment variables
//  3. YAML configuration file
//  4. Default values
func LoadWithFlags(flgs Flags) *Config {
	yamlConfig := loadFromYAML()

	port := getEnv("PORT", yamlConfig.Server.Port)
	if port == "" {
		port = DefaultPort
	}
	if flgs != nil && flgs.GetPort() != "" {
		port = flgs.GetPort()
	}

	environment := getEnv("ENVIRONMENT", yamlConfig.Server.Environment)
	if environment == "" {
		environment = DefaultEnvironment
	}
	if flgs != nil && flgs.GetEnvironment() != "" {
		environment = flgs.GetEnvironment()
	}

	logLevel := getEnv("LOG_LEVEL", yamlConfig.Server.LogLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}
	if flgs != nil && flgs.GetLogLevel() != "" {
		logLevel = flgs.GetLogLevel()
	}

	snTimeout := parseDurationOr(yamlConfig.ServiceNow.Timeout, DefaultRequestTimeout)

	dsn := getEnv("DATABASE_URL", yamlConfig.Database.DSN)
	if dsn == "" {
		dsn = dsnFromEnvParts()
	}

	pipelineInterval := parseDurationOr(getEnv("PIPELINE_INTERVAL", yamlConfig.Pipeline.Interval), DefaultPipelineInterval)
	runTimeout := parseDurationOr(yamlConfig.Pipeline.RunTimeout, DefaultRunTimeout)
	incidentTimeout := parseDurationOr(yamlConfig.Pipeline.IncidentTimeout, DefaultIncidentTimeout)

	cacheAddress := yamlConfig.Cache.Address
	redisHost := getEnv("REDIS_HOST", "")
	redisPort := getEnv("REDIS_PORT", "")
	if redisHost != "" && redisPort != "" {
		cacheAddress = redisHost + ":" + redisPort
	} else if redisHost != "" {
		cacheAddress = redisHost + ":6379"
	}

	return &Config{
		Port:        port,
		Environment: environment,
		LogLevel:    logLevel,
		ServiceNow: ServiceNowConfig{
			URL:             getEnv("SN_URL", yamlConfig.ServiceNow.URL),
			Username:        getEnv("SN_USERNAME", yamlConfig.ServiceNow.Username),
			Password:        getEnv("SN_PASSWORD", yamlConfig.ServiceNow.Password),
			AssignmentGroup: getEnv("ASSIGNMENT_GROUP_SYS_ID", yamlConfig.ServiceNow.AssignmentGroup),
			Timeout:         snTimeout,
		},
		Database: DatabaseConfig{
			DSN: dsn,
		},
		Pipeline: PipelineConfig{
			Enabled:         getEnvBool("PIPELINE_ENABLED", yamlConfig.Pipeline.Enabled),
			Interval:        pipelineInterval,
			RunTimeout:      runTimeout,
			IncidentTimeout: incidentTimeout,
		},
		Cache: CacheConfig{
			Enabled:   getEnvBool("CACHE_ENABLED", yamlConfig.Cache.Enabled),
			Address:   cacheAddress,
			Password:  getEnv("REDIS_PASSWORD", yamlConfig.Cache.Password),
			Database:  yamlConfig.Cache.Database,
			KeyPrefix: yamlConfig.Cache.KeyPrefix,
			TTL:       parseDurationOr(yamlConfig.Cache.TTL, DefaultStatisticsTTL),
		},
	}
}

// Validate checks that required ServiceNow configuration is present.
// The database is deliberately not required: the recorder degrades to
// in-memory storage and the dashboard still serves live data.
func (c *Config) Validate() error {
	missing := []string{}
	if c.ServiceNow.URL == "" {
		missing = append(missing, "SN_URL")
	}
	if c.ServiceNow.Username == "" {
		missing = append(missing, "SN_USERNAME")
	}
	if c.ServiceNow.Password == "" {
		missing = append(missing, "SN_PASSWORD")
	}
	if c.ServiceNow.AssignmentGroup == "" {
		missing = append(missing, "ASSIGNMENT_GROUP_SYS_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required ServiceNow configuration: %v", missing)
	}
	return nil
}

func loadFromYAML() *YAMLConfig {
	config := &YAMLConfig{}
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		return config
	}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return config
	}
	return config
}

// dsnFromEnvParts assembles a Postgres DSN from the discrete PG_* variables
// used by earlier deployments of this service.
func dsnFromEnvParts() string {
	host := os.Getenv("PG_HOST")
	db := os.Getenv("PG_DB")
	if host == "" || db == "" {
		return ""
	}
	port := getEnv("PG_PORT", "5432")
	user := os.Getenv("PG_USER")
	password := os.Getenv("PG_PASSWORD")

	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + port,
		Path:   "/" + db,
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
