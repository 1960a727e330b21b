package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Database  DatabaseConfig            `yaml:"database"`
	Auth      AuthConfig                `yaml:"auth"`
	Crypto    CryptoConfig              `yaml:"crypto"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Generate  GenerateConfig            `yaml:"generate"`
	Gateway   GatewayConfig             `yaml:"gateway"`
	CORS      CORSConfig                `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// credentials in memory only.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig configures bearer-token validation.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// CryptoConfig holds the credential encryption key (hex or base64, 32 bytes).
type CryptoConfig struct {
	Key string `yaml:"key"`
}

// ProviderConfig holds AI provider settings.
type ProviderConfig struct {
	Type   string `yaml:"type"`    // e.g. "openai"
	URL    string `yaml:"url"`     // base URL
	APIKey string `yaml:"api_key"` // API key
}

// GenerateConfig selects the model used for listing content generation.
type GenerateConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"` // per LLM call; 0 disables
}

// GatewayConfig holds settings for the tenant webhook gateway.
type GatewayConfig struct {
	WebhookTimeout time.Duration `yaml:"webhook_timeout"` // 0 disables
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Providers: map[string]ProviderConfig{},
		Generate: GenerateConfig{
			Timeout: 60 * time.Second,
		},
		Gateway: GatewayConfig{
			WebhookTimeout: 120 * time.Second,
			MaxUploadBytes: 32 << 20,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Ensure Providers map is never nil even if YAML has "providers: {}" or omits it.
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}

	return cfg, nil
}

// LoadDefault tries to load "config.yaml" from the current directory, then
// applies environment overrides. A missing file yields defaults.
func LoadDefault() (*Config, error) {
	cfg, err := Load("config.yaml")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = defaults()
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envProviders maps API-key variables to the provider entry they populate.
var envProviders = map[string]ProviderConfig{
	"OPENAI_API_KEY":    {Type: "openai"},
	"ANTHROPIC_API_KEY": {Type: "anthropic"},
	"GEMINI_API_KEY":    {Type: "gemini"},
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("FLOWMART_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FLOWMART_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("ENCRYPTION_KEY"); ok && v != "" {
		c.Crypto.Key = v
	}
	for envKey, base := range envProviders {
		v, ok := lookup(envKey)
		if !ok || v == "" {
			continue
		}
		p, exists := c.Providers[base.Type]
		if !exists {
			p = base
		}
		p.APIKey = v
		c.Providers[base.Type] = p
	}
	return nil
}
