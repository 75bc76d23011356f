package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configDirName = ".routegate"

// DefaultLocalBaseURL is where locally hosted models are served.
const DefaultLocalBaseURL = "http://localhost:8000/v1"

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string
	LocalBaseURL    string
	RoutingConfig   *RoutingConfig
	ConfigDir       string
}

// FileConfig represents the structure of ~/.routegate/config.yaml
type FileConfig struct {
	APIKeys   APIKeysConfig   `yaml:"api_keys"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
	DeepSeek  string `yaml:"deepseek"`
}

// EndpointsConfig holds provider endpoint overrides.
type EndpointsConfig struct {
	Local string `yaml:"local"`
}

// Load reads configuration from config files and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	cfg, err := loadBase()
	if err != nil {
		return nil, err
	}

	routingPath := filepath.Join(cfg.ConfigDir, "routing.yaml")
	if _, err := os.Stat(routingPath); err == nil {
		routing, err := LoadRoutingConfig(routingPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load routing config: %w", err)
		}
		cfg.RoutingConfig = routing
	} else {
		cfg.RoutingConfig = DefaultRoutingConfig()
	}

	return cfg, nil
}

// LoadWithRoutingFile loads config with a specific routing file.
func LoadWithRoutingFile(routingPath string) (*Config, error) {
	cfg, err := loadBase()
	if err != nil {
		return nil, err
	}

	routing, err := LoadRoutingConfig(routingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load routing config from %s: %w", routingPath, err)
	}
	cfg.RoutingConfig = routing

	return cfg, nil
}

func loadBase() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig, err := loadFileConfig(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return nil, err
	}

	return &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		DeepSeekAPIKey:  getEnvOrDefault("DEEPSEEK_API_KEY", fileConfig.APIKeys.DeepSeek),
		LocalBaseURL:    getEnvOrDefault("ROUTEGATE_LOCAL_URL", orDefault(fileConfig.Endpoints.Local, DefaultLocalBaseURL)),
		ConfigDir:       configDir,
	}, nil
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	case "local":
		return c.LocalBaseURL != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file. A missing file yields an empty config.
func loadFileConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, configDirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
