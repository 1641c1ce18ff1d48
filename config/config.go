package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// devJWTSecret signs tokens when no secret is configured outside production.
const devJWTSecret = "foodshare_dev_secret_change_me"

type Config struct {
	Port           string          `yaml:"port" env:"PORT"`
	Env            string          `yaml:"env" env:"NODE_ENV"`
	FrontendURL    string          `yaml:"frontend_url" env:"FRONTEND_URL"`
	DatabaseURL    string          `yaml:"database_url" env:"DATABASE_URL"`
	LogLevel       string          `yaml:"log_level" env:"LOG_LEVEL"`
	BodyLimitBytes int64           `yaml:"body_limit_bytes" env:"BODY_LIMIT_BYTES"`
	JWT            JWTConfig       `yaml:"jwt"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Admin          AdminConfig     `yaml:"admin"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL"`
}

// RateLimitConfig allows Max requests per Window for each client.
type RateLimitConfig struct {
	Max    int           `yaml:"max" env:"RATE_LIMIT_MAX"`
	Window time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW"`
}

// AdminConfig seeds an administrator account at startup when Email is set.
type AdminConfig struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	Name     string `yaml:"name" env:"ADMIN_NAME"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Port:           "5000",
		Env:            "development",
		FrontendURL:    "http://localhost:3000",
		DatabaseURL:    "foodshare.db",
		LogLevel:       "info",
		BodyLimitBytes: 10 << 20,
		JWT:            JWTConfig{TTL: 24 * time.Hour},
		RateLimit:      RateLimitConfig{Max: 100, Window: 15 * time.Minute},
		Admin:          AdminConfig{Name: "Administrator"},
	}
}

// Load layers defaults, the YAML file named by CONFIG_FILE (default
// config.yaml), a .env file and finally the process environment.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path, ".env")
}

// LoadFrom is Load with explicit file locations. Missing files are skipped.
func LoadFrom(yamlPath, envPath string) (*Config, error) {
	cfg := Default()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", yamlPath, err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.JWT.Secret == "" && !cfg.IsProduction() {
		cfg.JWT.Secret = devJWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	}
	if c.JWT.Secret == "" || (c.IsProduction() && c.JWT.Secret == devJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.BodyLimitBytes <= 0 {
		errs = append(errs, errors.New("BODY_LIMIT_BYTES must be positive"))
	}
	if c.Admin.Email != "" && len(c.Admin.Password) < 6 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be at least 6 characters when ADMIN_EMAIL is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }
