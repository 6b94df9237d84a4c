// Package config reads the process-wide settings of the Wanderlust server
// from the environment, optionally seeded from a .env file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const envPrefix = "WANDERLUST_"

const (
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")
	ErrMissingSecret      = errors.New("SECRET is not set")
)

// Config holds the settings read once at startup.
type Config struct {
	DatabaseURL string
	Secret      string

	Listen   string
	Port     int
	Domain   string
	CertFile string
	KeyFile  string

	SessionStore  string
	SessionMaxAge time.Duration
	RedisAddr     string

	BcryptCost          int
	LoginRateLimit      int
	ReviewsRequireLogin bool
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

// LoadEnvFile merges a .env file into the process environment. Variables
// already set take precedence. A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:         GetDatabaseURL(),
		Secret:              os.Getenv("SECRET"),
		Listen:              os.Getenv(envPrefix + "LISTEN"),
		Domain:              os.Getenv(envPrefix + "DOMAIN"),
		CertFile:            os.Getenv(envPrefix + "CERT_FILE"),
		KeyFile:             os.Getenv(envPrefix + "KEY_FILE"),
		SessionStore:        getString("SESSION_STORE", SessionStoreDatabase),
		RedisAddr:           os.Getenv(envPrefix + "REDIS_ADDR"),
		ReviewsRequireLogin: getBool("REVIEWS_REQUIRE_LOGIN"),
	}

	var err error
	if c.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	maxAge, err := getInt("SESSION_MAX_AGE", 7*24*60)
	if err != nil {
		return nil, err
	}
	c.SessionMaxAge = time.Duration(maxAge) * time.Minute
	if c.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if c.LoginRateLimit, err = getInt("LOGIN_RATE_LIMIT", 20); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the required settings and the ranges of the optional ones.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Secret == "" {
		return ErrMissingSecret
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be positive")
	}
	switch c.SessionStore {
	case SessionStoreDatabase, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported session store: %s", c.SessionStore)
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("cert file and key file must be set together")
	}
	return nil
}

// GetDatabaseURL returns DATABASE_URL, falling back to ATLASDB_URL.
func GetDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("ATLASDB_URL")
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv(envPrefix + "LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv(envPrefix+"DEBUG") == "true"
}

func GetLogFolder() string {
	logFolderPath := os.Getenv(envPrefix + "LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "log"
	}
	return logFolderPath
}

func getString(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(envPrefix + key))
	return v
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return n, nil
}
