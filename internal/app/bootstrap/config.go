package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
// It merges file defaults and environment overrides to support both local
// and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int

	MongoURI      string
	MongoDatabase string
	RedisURL      string

	TokenSecret         string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	EmailValidationTTL  time.Duration
	EmailRecoveryTTL    time.Duration
	PasswordRecoveryTTL time.Duration
	DeviceTokenTTL      time.Duration

	BcryptCost         int
	TwoFactorIssuer    string
	DefaultPermissions []string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	// PublicBaseURL is the frontend origin the mailed links point at.
	PublicBaseURL string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay
// internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		MongoURI      string `yaml:"mongo_uri"`
		MongoDatabase string `yaml:"mongo_database"`
		RedisURL      string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Email struct {
		SMTPHost      string `yaml:"smtp_host"`
		SMTPPort      int    `yaml:"smtp_port"`
		SMTPUsername  string `yaml:"smtp_username"`
		SMTPPassword  string `yaml:"smtp_password"`
		From          string `yaml:"from"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"email"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific
// overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:           "authd",
		HTTPPort:            8080,
		MongoDatabase:       "authd",
		AccessTokenTTL:      time.Hour,
		RefreshTokenTTL:     30 * 24 * time.Hour,
		EmailValidationTTL:  30 * time.Minute,
		EmailRecoveryTTL:    30 * time.Minute,
		PasswordRecoveryTTL: 15 * time.Minute,
		DeviceTokenTTL:      90 * 24 * time.Hour,
		BcryptCost:          10,
		TwoFactorIssuer:     "authd",
		DefaultPermissions:  []string{"user"},
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.MongoURI != "" {
			cfg.MongoURI = f.Dependencies.MongoURI
		}
		if f.Dependencies.MongoDatabase != "" {
			cfg.MongoDatabase = f.Dependencies.MongoDatabase
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Email.SMTPHost != "" {
			cfg.SMTPHost = f.Email.SMTPHost
		}
		if f.Email.SMTPPort > 0 {
			cfg.SMTPPort = f.Email.SMTPPort
		}
		if f.Email.SMTPUsername != "" {
			cfg.SMTPUsername = f.Email.SMTPUsername
		}
		if f.Email.SMTPPassword != "" {
			cfg.SMTPPassword = f.Email.SMTPPassword
		}
		if f.Email.From != "" {
			cfg.EmailFrom = f.Email.From
		}
		if f.Email.PublicBaseURL != "" {
			cfg.PublicBaseURL = f.Email.PublicBaseURL
		}
	}

	cfg.MongoURI = envOrDefault("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = envOrDefault("MONGO_DATABASE", cfg.MongoDatabase)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.TokenSecret = envOrDefault("TOKEN_SECRET", cfg.TokenSecret)
	cfg.TwoFactorIssuer = envOrDefault("TWO_FACTOR_ISSUER", cfg.TwoFactorIssuer)
	cfg.DefaultPermissions = envCSV("DEFAULT_PERMISSIONS", cfg.DefaultPermissions)

	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = envOrDefault("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = envOrDefault("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.EmailFrom = envOrDefault("EMAIL_FROM", cfg.EmailFrom)
	cfg.PublicBaseURL = envOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)

	cfg.AccessTokenTTL = time.Duration(envInt("ACCESS_TOKEN_TTL_MINUTES", int(cfg.AccessTokenTTL.Minutes()))) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(envInt("REFRESH_TOKEN_TTL_DAYS", int(cfg.RefreshTokenTTL.Hours()/24))) * 24 * time.Hour
	cfg.EmailValidationTTL = time.Duration(envInt("EMAIL_VALIDATION_TTL_MINUTES", int(cfg.EmailValidationTTL.Minutes()))) * time.Minute
	cfg.EmailRecoveryTTL = time.Duration(envInt("EMAIL_RECOVERY_TTL_MINUTES", int(cfg.EmailRecoveryTTL.Minutes()))) * time.Minute
	cfg.PasswordRecoveryTTL = time.Duration(envInt("PASSWORD_RECOVERY_TTL_MINUTES", int(cfg.PasswordRecoveryTTL.Minutes()))) * time.Minute
	cfg.DeviceTokenTTL = time.Duration(envInt("DEVICE_TOKEN_TTL_DAYS", int(cfg.DeviceTokenTTL.Hours()/24))) * 24 * time.Hour

	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("missing MONGO_URI")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.TokenSecret == "" {
		return Config{}, fmt.Errorf("missing TOKEN_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
