package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/catalog"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server         models.ServerConfig              `yaml:"server"`
	Providers      map[string]models.ProviderConfig `yaml:"providers"`
	Routing        models.RoutingConfig             `yaml:"routing"`
	Catalogs       models.CatalogsConfig            `yaml:"catalogs,omitempty"`
	Continuation   models.ContinuationConfig        `yaml:"continuation,omitempty"`
	CircuitBreaker models.CircuitBreakerConfig      `yaml:"circuit_breaker,omitempty"`
	Redis          *models.RedisConfig              `yaml:"redis,omitempty"`
	Database       *models.DatabaseConfig           `yaml:"database,omitempty"`
	ModelRouter    *models.ModelRouterConfig        `yaml:"model_router,omitempty"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	cleanPath := filepath.Clean(configPath)
	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration after substituting environment variables
func Parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Provider identities are case-insensitive
	if config.Providers != nil {
		normalized := make(map[string]models.ProviderConfig, len(config.Providers))
		for key, value := range config.Providers {
			normalized[strings.ToLower(key)] = value
		}
		config.Providers = normalized
	}
	config.Routing.PrimaryProvider = strings.ToLower(config.Routing.PrimaryProvider)
	config.Routing.AggregatorProvider = strings.ToLower(config.Routing.AggregatorProvider)
	config.Continuation = config.Continuation.WithDefaults()

	return &config, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

// ConfigPathEnv overrides the default config.yaml location
const ConfigPathEnv = "ADAPTIVE_CHAT_CONFIG"

// PathFromEnv returns the config path set in ConfigPathEnv, or ""
func PathFromEnv() string {
	return strings.TrimSpace(os.Getenv(ConfigPathEnv))
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		defaultValue := ""
		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(submatches[1]); value != "" {
			return value
		}
		return defaultValue
	})
}

// GetProviderConfig returns the configuration for a provider identity
func (c *Config) GetProviderConfig(provider string) (models.ProviderConfig, bool) {
	cfg, ok := c.Providers[strings.ToLower(provider)]
	return cfg, ok
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// PrimaryCatalog builds the primary-provider catalog, using the built-in
// profiles unless the configuration lists its own.
func (c *Config) PrimaryCatalog() (*catalog.Catalog, error) {
	profiles := c.Catalogs.Primary
	if len(profiles) == 0 {
		profiles = catalog.DefaultPrimaryProfiles()
	}
	cat, err := catalog.New(profiles)
	if err != nil {
		return nil, fmt.Errorf("invalid primary catalog: %w", err)
	}
	return cat, nil
}

// AggregatorCatalog builds the persona catalog. It is nil when no aggregator provider is routed.
func (c *Config) AggregatorCatalog() (*catalog.Catalog, error) {
	if c.Routing.AggregatorProvider == "" {
		return nil, nil
	}
	profiles := c.Catalogs.Aggregator
	if len(profiles) == 0 {
		profiles = catalog.DefaultAggregatorProfiles()
	}
	cat, err := catalog.New(profiles)
	if err != nil {
		return nil, fmt.Errorf("invalid aggregator catalog: %w", err)
	}
	return cat, nil
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}
	if c.Routing.PrimaryProvider == "" {
		missing = append(missing, "routing.primary_provider")
	} else if _, ok := c.GetProviderConfig(c.Routing.PrimaryProvider); !ok {
		missing = append(missing, "providers."+c.Routing.PrimaryProvider)
	}
	if c.Routing.AggregatorProvider != "" {
		if _, ok := c.GetProviderConfig(c.Routing.AggregatorProvider); !ok {
			missing = append(missing, "providers."+c.Routing.AggregatorProvider)
		}
	}
	if c.ModelRouter != nil && c.ModelRouter.URL == "" {
		missing = append(missing, "model_router.url")
	}
	for _, name := range slices.Sorted(maps.Keys(c.Providers)) {
		if c.Providers[name].APIKey == "" {
			missing = append(missing, "providers."+name+".api_key")
		}
	}

	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}

	if _, err := c.PrimaryCatalog(); err != nil {
		return err
	}
	if _, err := c.AggregatorCatalog(); err != nil {
		return err
	}
	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required configuration fields: " + strings.Join(e.MissingFields, ", ")
}
