package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prism-platform/riskengine/internal/riskassess"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("PRISM_PROVIDER_API_KEY", "sk-test")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("default addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Provider.Model != riskassess.DefaultModelAlias {
		t.Fatalf("default model: %q", cfg.Provider.Model)
	}
	if cfg.Engine.MaxConcurrent != riskassess.DefaultMaxConcurrent {
		t.Fatalf("default max_concurrent: %d", cfg.Engine.MaxConcurrent)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("default logging: %+v", cfg.Logging)
	}
}

func TestLoadFromEnvRequiresAPIKey(t *testing.T) {
	os.Unsetenv("PRISM_PROVIDER_API_KEY")
	_, err := LoadFromEnv()
	if err == nil || !strings.Contains(err.Error(), "provider.api_key") {
		t.Fatalf("expected api key requirement, got %v", err)
	}
}

func TestLoadFromEnvDisabledProviderSkipsKey(t *testing.T) {
	os.Unsetenv("PRISM_PROVIDER_API_KEY")
	t.Setenv("PRISM_PROVIDER_DISABLED", "true")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("disabled provider should not require a key: %v", err)
	}
	if !cfg.Provider.Disabled {
		t.Fatal("disabled flag not picked up")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
http:
  addr: ":9090"
provider:
  api_key: sk-from-file
  timeout: 45s
engine:
  max_concurrent: 4
  weights:
    financial: 0.6
    operational: 0.2
    market: 0.1
    compliance: 0.1
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Provider.Timeout != 45*time.Second {
		t.Fatalf("timeout: %v", cfg.Provider.Timeout)
	}
	weights, err := cfg.CategoryWeights()
	if err != nil {
		t.Fatalf("CategoryWeights: %v", err)
	}
	if weights[riskassess.CategoryFinancial] != 0.6 {
		t.Fatalf("weights: %v", weights)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		cfg.Provider.APIKey = "sk-test"
		return cfg
	}

	cfg := base()
	cfg.Engine.MaxConcurrent = 0
	ApplyDefaults(cfg) // zero is unset, becomes default
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaulted config should validate: %v", err)
	}

	cfg = base()
	cfg.Engine.MaxConcurrent = 100000
	if err := cfg.Validate(); err == nil {
		t.Fatal("absurd max_concurrent should fail")
	}

	cfg = base()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown log level should fail")
	}

	cfg = base()
	cfg.Engine.Weights = map[string]float64{"astrology": 1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown weight category should fail")
	}

	cfg = base()
	cfg.Engine.Weights = map[string]float64{"financial": -0.5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative weight should fail")
	}
}
