package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
	DatabaseTypeMongoDB    DatabaseType = "mongodb"
)

const defaultDatabaseName = "wanderlust"

// DatabaseConfig is the parsed form of the database connection URL.
type DatabaseConfig struct {
	Type DatabaseType
	// DSN is what the driver receives: a file path for SQLite, the URL
	// itself for PostgreSQL and MongoDB.
	DSN string
	// Name is the MongoDB database name taken from the URL path.
	Name string
}

// ParseDatabaseURL picks the backend from the URL scheme. Anything without a
// known scheme is treated as a SQLite file path.
func ParseDatabaseURL(raw string) (*DatabaseConfig, error) {
	if raw == "" {
		return nil, ErrMissingDatabaseURL
	}
	switch {
	case strings.HasPrefix(raw, "mongodb://"), strings.HasPrefix(raw, "mongodb+srv://"):
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid mongodb url: %w", err)
		}
		dbName := strings.Trim(u.Path, "/")
		if dbName == "" {
			dbName = defaultDatabaseName
		}
		return &DatabaseConfig{Type: DatabaseTypeMongoDB, DSN: raw, Name: dbName}, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return &DatabaseConfig{Type: DatabaseTypePostgreSQL, DSN: raw}, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return &DatabaseConfig{Type: DatabaseTypeSQLite, DSN: strings.TrimPrefix(raw, "sqlite://")}, nil
	case strings.Contains(raw, "://"):
		return nil, fmt.Errorf("unsupported database url scheme: %s", raw[:strings.Index(raw, "://")])
	default:
		return &DatabaseConfig{Type: DatabaseTypeSQLite, DSN: raw}, nil
	}
}

// IsPostgreSQL returns true if the database type is PostgreSQL
func (c *DatabaseConfig) IsPostgreSQL() bool {
	return c.Type == DatabaseTypePostgreSQL
}

// IsSQLite returns true if the database type is SQLite
func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite
}

// IsMongoDB returns true if the database type is MongoDB
func (c *DatabaseConfig) IsMongoDB() bool {
	return c.Type == DatabaseTypeMongoDB
}

// EnsureDirectoryExists ensures the directory for SQLite database exists
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if c.Type == DatabaseTypeSQLite && c.DSN != ":memory:" {
		dir := filepath.Dir(c.DSN)
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
