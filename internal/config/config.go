// Package config provides configuration loading, defaults, and validation for
// the risk engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/prism-platform/riskengine/internal/riskassess"
)

// envPrefix is the environment variable prefix for all engine settings, so
// "provider.api_key" resolves to PRISM_PROVIDER_API_KEY.
const envPrefix = "PRISM"

// Config is the full runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Provider ProviderConfig `mapstructure:"provider"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ProviderConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// Disabled runs the engine without narrative enrichment; every
	// assessment is a fallback. Useful for air-gapped deployments.
	Disabled bool `mapstructure:"disabled"`
}

type EngineConfig struct {
	MaxConcurrent int                `mapstructure:"max_concurrent"`
	Weights       map[string]float64 `mapstructure:"weights"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Registering every key makes AutomaticEnv overrides visible to
	// Unmarshal even when no config file is present.
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 120*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", riskassess.DefaultModelAlias)
	v.SetDefault("provider.max_tokens", riskassess.DefaultMaxTokens)
	v.SetDefault("provider.timeout", riskassess.DefaultProviderTimeout)
	v.SetDefault("provider.disabled", false)
	v.SetDefault("engine.max_concurrent", riskassess.DefaultMaxConcurrent)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	return v
}

// Load reads the YAML file at configPath, merges PRISM_* environment
// overrides, applies defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from PRISM_* environment variables.
// This is the preferred strategy for containerised deployments.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills every unset field with its production default.
func ApplyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = riskassess.DefaultModelAlias
	}
	if cfg.Provider.MaxTokens <= 0 {
		cfg.Provider.MaxTokens = riskassess.DefaultMaxTokens
	}
	if cfg.Provider.Timeout <= 0 {
		cfg.Provider.Timeout = riskassess.DefaultProviderTimeout
	}
	if cfg.Engine.MaxConcurrent <= 0 {
		cfg.Engine.MaxConcurrent = riskassess.DefaultMaxConcurrent
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if !c.Provider.Disabled && strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("provider.api_key is required unless provider.disabled is set")
	}
	if c.Provider.MaxTokens < 256 {
		return fmt.Errorf("provider.max_tokens must be at least 256, got %d", c.Provider.MaxTokens)
	}
	if c.Engine.MaxConcurrent < 1 || c.Engine.MaxConcurrent > 1024 {
		return fmt.Errorf("engine.max_concurrent must be in [1,1024], got %d", c.Engine.MaxConcurrent)
	}
	if _, err := c.CategoryWeights(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// CategoryWeights converts the configured weight map into the engine's
// representation, falling back to the stock weighting when unset.
func (c *Config) CategoryWeights() (riskassess.CategoryWeights, error) {
	if len(c.Engine.Weights) == 0 {
		return riskassess.DefaultWeights(), nil
	}
	out := make(riskassess.CategoryWeights, len(c.Engine.Weights))
	for k, v := range c.Engine.Weights {
		out[riskassess.Category(strings.ToLower(k))] = v
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("engine.weights invalid: %w", err)
	}
	for _, cat := range riskassess.AllCategories {
		if _, ok := out[cat]; !ok {
			return nil, fmt.Errorf("engine.weights must define all four categories, missing %q", cat)
		}
	}
	return out, nil
}
