package api

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openkitx403/openkit403-go/pkg/walletauth"
)

// AuthConfig is the YAML shape of the request-auth settings.
type AuthConfig struct {
	Audience         string   `yaml:"audience"`
	Issuer           string   `yaml:"issuer"`
	TTLSeconds       int      `yaml:"ttl_seconds"`
	ClockSkewSeconds int      `yaml:"clock_skew_seconds"`
	BindMethodPath   bool     `yaml:"bind_method_path"`
	ExcludedPaths    []string `yaml:"excluded_paths"`
	ExcludedPrefixes []string `yaml:"excluded_prefixes"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	MaskResponses    bool     `yaml:"mask_responses"`
	ReplayProtection bool     `yaml:"replay_protection"`
}

// Config holds the server configuration loaded from YAML.
type Config struct {
	Listen string     `yaml:"listen"`
	DBPath string     `yaml:"db_path"`
	Auth   AuthConfig `yaml:"auth"`
}

// DefaultConfig returns a config suitable for local development.
func DefaultConfig() Config {
	return Config{
		Listen: ":8000",
		Auth: AuthConfig{
			Audience:       "http://localhost:8000",
			Issuer:         "trading-bot-api",
			TTLSeconds:     60,
			BindMethodPath: false,
			ExcludedPaths:  []string{"/", "/health"},
		},
	}
}

// LoadConfig reads a YAML config file. Fields not present in the file
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// AuthParams converts the YAML auth section into verifier parameters.
func (c Config) AuthParams() walletauth.ConfigParams {
	return walletauth.ConfigParams{
		Audience:         c.Auth.Audience,
		Issuer:           c.Auth.Issuer,
		TTLSeconds:       c.Auth.TTLSeconds,
		ClockSkewSeconds: c.Auth.ClockSkewSeconds,
		BindMethodPath:   c.Auth.BindMethodPath,
		ExcludedPaths:    c.Auth.ExcludedPaths,
		ExcludedPrefixes: c.Auth.ExcludedPrefixes,
		AllowedOrigins:   c.Auth.AllowedOrigins,
	}
}
