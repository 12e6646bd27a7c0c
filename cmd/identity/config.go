package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/quizdeck/identity/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8080"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultAccessTTL       = 2 * time.Hour
	defaultRefreshTTL      = 30 * 24 * time.Hour
	defaultRateLimitMax    = 100
	defaultRateLimitWindow = 15 * time.Minute
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the identity service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key signing access tokens, shared with every verifying service.
	// No default on purpose: the service refuses to start without it
	SecretKey string

	// Out-of-band secret gating ADMIN role grants. Also no default
	AdminSecretKey string

	// Token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Rate limiter: max requests per window
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		AccessTokenTTL:  defaultAccessTTL,
		RefreshTokenTTL: defaultRefreshTTL,
		RateLimitMax:    defaultRateLimitMax,
		RateLimitWindow: defaultRateLimitWindow,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if parsed, err := strconv.Atoi(value); err == nil {
				*o = parsed
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if parsed, err := time.ParseDuration(value); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":       setString(&c.ListenAddr),
		"DATABASE_URI":      setString(&c.DatabaseDSN),
		"SECRET_KEY":        setString(&c.SecretKey),
		"ADMIN_SECRET_KEY":  setString(&c.AdminSecretKey),
		"LOG_LEVEL":         setString(&c.LogLevel),
		"ENVIRONMENT":       setString(&c.Environment),
		"ACCESS_TOKEN_TTL":  setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_TTL": setDuration(&c.RefreshTokenTTL),
		"RATE_LIMIT_MAX":    setInt(&c.RateLimitMax),
		"RATE_LIMIT_WINDOW": setDuration(&c.RateLimitWindow),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("identity", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Access token signing key")
	fs.StringVarP(&c.AdminSecretKey, "admin-secret-key", "k", c.AdminSecretKey, "Admin elevation secret")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.IntVar(&c.RateLimitMax, "rate-limit-max", c.RateLimitMax, "Max requests per rate limit window")
	fs.DurationVar(&c.RateLimitWindow, "rate-limit-window", c.RateLimitWindow, "Rate limit window length")

	return fs.Parse(args)
}

// Validate rejects configs the service must not start with.
// Secrets have no fallback literals: a guessable default signing key would
// undermine every service trusting it
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret key is required (SECRET_KEY or --secret-key)")
	}
	if c.AdminSecretKey == "" {
		return errors.New("admin secret key is required (ADMIN_SECRET_KEY or --admin-secret-key)")
	}
	if c.DatabaseDSN == "" {
		return errors.New("database DSN is required (DATABASE_URI or --database)")
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("rate limit max must be positive, got %d", c.RateLimitMax)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.RateLimitWindow)
	}

	return nil
}
