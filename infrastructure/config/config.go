package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	ProjectName   string

	// AWS configuration
	AWSRegion    string
	EventBusName string

	// Cache configuration
	CacheEndpoint       string
	CachePort           int
	CacheAuthSecret     string
	CacheInsecureTLS    bool // skip certificate and hostname verification
	CacheConnectTimeout time.Duration
	CacheReadTimeout    time.Duration

	// Document store configuration
	SearchEndpoint string
	EventIndex     string

	// Processor configuration
	GeneratorBatchSize int

	// Lambda configuration
	IsLambda bool

	// Logging and features
	LogLevel      string
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "dev"),
		ProjectName:   getEnv("PROJECT_NAME", "event-pipeline"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		CacheEndpoint:       getEnv("REDIS_ENDPOINT", ""),
		CachePort:           getEnvInt("REDIS_PORT", 6379),
		CacheAuthSecret:     getEnv("REDIS_AUTH_SECRET", ""),
		CacheInsecureTLS:    getEnvBool("REDIS_INSECURE_TLS", true),
		CacheConnectTimeout: time.Duration(getEnvInt("REDIS_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,
		CacheReadTimeout:    time.Duration(getEnvInt("REDIS_READ_TIMEOUT_SECONDS", 5)) * time.Second,

		SearchEndpoint: normalizeEndpoint(getEnv("OPENSEARCH_ENDPOINT", "")),
		EventIndex:     getEnv("EVENT_INDEX", "user-events"),

		GeneratorBatchSize: getEnvInt("GENERATOR_BATCH_SIZE", 25),

		IsLambda: os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "",

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if cfg.CacheAuthSecret == "" {
		// matches the provisioned secret naming scheme
		cfg.CacheAuthSecret = fmt.Sprintf("%s-%s-redis-auth-token", cfg.ProjectName, cfg.Environment)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present. Endpoints left
// unset here must be resolvable from the parameter store, which needs the
// project and environment names to build the parameter prefix.
func (c *Config) Validate() error {
	if c.CacheEndpoint == "" || c.SearchEndpoint == "" {
		if c.ProjectName == "" {
			return fmt.Errorf("PROJECT_NAME is required when endpoints come from the parameter store")
		}
		if c.Environment == "" {
			return fmt.Errorf("ENVIRONMENT is required when endpoints come from the parameter store")
		}
	}
	if c.GeneratorBatchSize <= 0 {
		return fmt.Errorf("GENERATOR_BATCH_SIZE must be positive")
	}
	return nil
}

// CacheAddr returns the cache host:port dial address
func (c *Config) CacheAddr() string {
	return net.JoinHostPort(c.CacheEndpoint, strconv.Itoa(c.CachePort))
}

// MetricsNamespace returns the CloudWatch namespace for this deployment
func (c *Config) MetricsNamespace() string {
	return fmt.Sprintf("EventPipeline/%s", c.Environment)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "dev" || c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// normalizeEndpoint strips an https:// scheme from a hostname parameter
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimSuffix(endpoint, "/")
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
