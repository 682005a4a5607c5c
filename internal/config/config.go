package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration for the API server sourced from env vars.
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	DatabaseURL string        `env:"DATABASE_URL"`
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"projectdesk"`
	AccessTTL   time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL  time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`
	InviteTTL   time.Duration `env:"INVITE_TTL" envDefault:"168h"`
	CORSOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`

	// SuperAdminEmail and SuperAdminPassword seed the platform superadmin
	// at startup when both are set.
	SuperAdminEmail    string `env:"SUPERADMIN_EMAIL"`
	SuperAdminPassword string `env:"SUPERADMIN_PASSWORD"`
}

// Load reads configuration from the environment and performs minimal validation.
// An empty DATABASE_URL selects the in-memory store.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.CORSOrigins = parseOrigins(cfg.CORSOrigins)

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return Config{}, errors.New("JWT_REFRESH_TTL must exceed JWT_ACCESS_TTL")
	}
	cfg.SuperAdminEmail = strings.TrimSpace(cfg.SuperAdminEmail)
	if (cfg.SuperAdminEmail == "") != (cfg.SuperAdminPassword == "") {
		return Config{}, errors.New("SUPERADMIN_EMAIL and SUPERADMIN_PASSWORD must be set together")
	}
	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// ClientConfig configures the pmctl terminal client.
type ClientConfig struct {
	APIURL    string        `env:"PMCTL_API_URL" envDefault:"http://localhost:8080/api"`
	StatePath string        `env:"PMCTL_STATE_PATH"`
	Timeout   time.Duration `env:"PMCTL_TIMEOUT" envDefault:"15s"`
	Debug     bool          `env:"PMCTL_DEBUG"`
}

// LoadClient reads client configuration from the environment.
func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		return ClientConfig{}, errors.New("PMCTL_API_URL is required")
	}
	return cfg, nil
}

func parseOrigins(in []string) []string {
	var out []string
	for _, part := range in {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
