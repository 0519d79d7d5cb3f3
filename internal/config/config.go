package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=presentsir port=5432 sslmode=disable"

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not set")
	ErrShortSecret   = errors.New("JWT_SECRET must be at least 32 characters")
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether outgoing mail goes through SMTP. Without a host,
// notifications are written to the log instead.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type Config struct {
	Env            string
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	AdminUsername  string
	AdminPassword  string
	GoogleClientID string
	AppURL         string
	CORSOrigins    []string
	SMTP           SMTPConfig

	// Warnings collects non-fatal findings for the caller to log once the
	// logger is up.
	Warnings []string
}

// Load reads the environment, after an optional .env file (ENV_FILE or
// ./.env). A missing or short JWT secret is an error: the server must not
// start without one.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		AppURL:         strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		CORSOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", "noreply@presentsir.in"),
		},
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("config: TOKEN_TTL: %w", err)
	}
	if cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost))); err != nil {
		return nil, fmt.Errorf("config: BCRYPT_COST: %w", err)
	}
	if cfg.SMTP.Port, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("config: SMTP_PORT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DatabaseDSN == defaultDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN uses the local default")
	}
	if !cfg.AdminConfigured() {
		cfg.Warnings = append(cfg.Warnings, "ADMIN_USERNAME/ADMIN_PASSWORD not set, admin login will fail")
	}
	if !cfg.SMTP.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "SMTP_HOST not set, notification emails are only logged")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if len(c.JWTSecret) < 32 {
		return ErrShortSecret
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// LoginURL is the sign-in page linked from notification emails.
func (c *Config) LoginURL() string {
	return c.AppURL + "/login"
}

func (c *Config) AdminConfigured() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
