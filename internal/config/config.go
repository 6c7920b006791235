package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig selects exactly one identity backend at process start.
type AuthConfig struct {
	// Provider is keycloak, oidc, or local.
	Provider string `yaml:"provider"`

	// Keycloak provider.
	KeycloakURL   string `yaml:"keycloak_url"`
	KeycloakRealm string `yaml:"keycloak_realm"`

	// Generic OIDC provider.
	Issuer   string `yaml:"issuer"`
	ClientID string `yaml:"client_id"`

	// Local email/password provider.
	JWTSecret         string `yaml:"jwt_secret"`
	AllowRegistration bool   `yaml:"allow_registration"`
}

type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// OIDCIssuer resolves the issuer URL for the active provider.
func (a AuthConfig) OIDCIssuer() string {
	if a.Provider == "keycloak" {
		return a.KeycloakURL + "/realms/" + a.KeycloakRealm
	}
	return a.Issuer
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix GAINS_ and underscore-separated paths:
//
//	GAINS_SERVER_HOST, GAINS_SERVER_PORT, GAINS_CORS_ORIGIN,
//	GAINS_DB_HOST, GAINS_DB_PORT, GAINS_DB_NAME,
//	GAINS_DB_USER, GAINS_DB_PASSWORD, GAINS_DB_SSLMODE,
//	GAINS_AUTH_PROVIDER, GAINS_AUTH_JWT_SECRET, GAINS_AUTH_ISSUER,
//	GAINS_AUTH_CLIENT_ID, GAINS_KEYCLOAK_URL, GAINS_KEYCLOAK_REALM,
//	GAINS_ALLOW_REGISTRATION, GAINS_ANTHROPIC_API_KEY,
//	GAINS_ANTHROPIC_MODEL, GAINS_ANTHROPIC_MAX_TOKENS
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Auth.Provider == "" {
		cfg.Auth.Provider = "keycloak"
	}
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.Anthropic.MaxTokens == 0 {
		cfg.Anthropic.MaxTokens = 2048
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GAINS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GAINS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GAINS_CORS_ORIGIN"); v != "" {
		cfg.Server.CORSOrigin = v
	}
	if v := os.Getenv("GAINS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("GAINS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("GAINS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("GAINS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("GAINS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("GAINS_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("GAINS_AUTH_PROVIDER"); v != "" {
		cfg.Auth.Provider = v
	}
	if v := os.Getenv("GAINS_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("GAINS_AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("GAINS_AUTH_CLIENT_ID"); v != "" {
		cfg.Auth.ClientID = v
	}
	if v := os.Getenv("GAINS_KEYCLOAK_URL"); v != "" {
		cfg.Auth.KeycloakURL = v
	}
	if v := os.Getenv("GAINS_KEYCLOAK_REALM"); v != "" {
		cfg.Auth.KeycloakRealm = v
	}
	if v := os.Getenv("GAINS_ALLOW_REGISTRATION"); v != "" {
		cfg.Auth.AllowRegistration = v == "true"
	}
	if v := os.Getenv("GAINS_ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv("GAINS_ANTHROPIC_MODEL"); v != "" {
		cfg.Anthropic.Model = v
	}
	if v := os.Getenv("GAINS_ANTHROPIC_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Anthropic.MaxTokens = n
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	switch c.Auth.Provider {
	case "keycloak":
		if c.Auth.KeycloakURL == "" || c.Auth.KeycloakRealm == "" {
			return fmt.Errorf("auth.keycloak_url and auth.keycloak_realm are required for the keycloak provider")
		}
	case "oidc":
		if c.Auth.Issuer == "" {
			return fmt.Errorf("auth.issuer is required for the oidc provider")
		}
	case "local":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for the local provider")
		}
	default:
		return fmt.Errorf("auth.provider must be keycloak, oidc, or local, got %q", c.Auth.Provider)
	}
	return nil
}
