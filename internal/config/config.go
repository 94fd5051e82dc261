// Package config provides configuration loading and management for plugin-index.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/plugin-index/internal/telemetry"
)

// EnvPrefix is the prefix of every environment override read through viper
const EnvPrefix = "PLUGIN_INDEX"

// Cache backends
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

const (
	defaultRequestsPerSecond = 2.0
	defaultConcurrency       = 10
	defaultReadAhead         = 4
	defaultCacheTTL          = 24 * time.Hour
	defaultCacheSize         = 50000
	defaultServerAddress     = ":8080"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this also cleans the path.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Database   *DatabaseConfig   `yaml:"database,omitempty"`
	Registries RegistriesConfig  `yaml:"registries"`
	Schedule   *ScheduleConfig   `yaml:"schedule,omitempty"`
	Cache      *CacheConfig      `yaml:"cache,omitempty"`
	Telemetry  *telemetry.Config `yaml:"telemetry,omitempty"`
	Server     *ServerConfig     `yaml:"server,omitempty"`
}

// RegistriesConfig holds the per-registry crawl settings
type RegistriesConfig struct {
	Spigot   *RegistryConfig `yaml:"spigot,omitempty"`
	Modrinth *RegistryConfig `yaml:"modrinth,omitempty"`
	Hangar   *RegistryConfig `yaml:"hangar,omitempty"`
}

// RegistryConfig defines how one registry is crawled. Zero values fall back
// to the adapter defaults.
type RegistryConfig struct {
	// BaseURL overrides the public API root
	BaseURL string `yaml:"baseURL,omitempty"`

	// RequestsPerSecond is the token bucket rate shared by every request
	// made to this registry during a run
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// Concurrency bounds the number of in-flight item persists
	Concurrency int `yaml:"concurrency,omitempty"`

	// ReadAhead is the number of pages kept in flight during populate
	ReadAhead int `yaml:"readAhead,omitempty"`

	// PageSize is the number of items requested per page
	PageSize int `yaml:"pageSize,omitempty"`

	// Timeout bounds a single HTTP request (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`
}

// ScheduleConfig holds the cron specs used by the schedule command
type ScheduleConfig struct {
	// Update runs an update of every registry
	Update string `yaml:"update"`

	// Refresh rebuilds the common projects. Empty means after every update.
	Refresh string `yaml:"refresh,omitempty"`
}

// CacheConfig selects the latest version cache backend
type CacheConfig struct {
	Backend string `yaml:"backend"`

	// Address is the redis address (host:port)
	Address string `yaml:"address,omitempty"`

	// Size is the in-process LRU capacity
	Size int `yaml:"size,omitempty"`

	// TTL bounds how long a cached version is trusted (e.g., "24h")
	TTL string `yaml:"ttl,omitempty"`
}

// ServerConfig configures the read API
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from the PGPASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv("PGPASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or PGPASSWORD environment variable",
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String(), nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Registry returns the crawl settings for the named registry with defaults
// applied. Unknown names and unset sections yield the defaults.
func (c *Config) Registry(name string) RegistryConfig {
	var rc *RegistryConfig
	switch name {
	case "spigot":
		rc = c.Registries.Spigot
	case "modrinth":
		rc = c.Registries.Modrinth
	case "hangar":
		rc = c.Registries.Hangar
	}
	out := RegistryConfig{}
	if rc != nil {
		out = *rc
	}
	if out.RequestsPerSecond == 0 {
		out.RequestsPerSecond = defaultRequestsPerSecond
	}
	if out.Concurrency == 0 {
		out.Concurrency = defaultConcurrency
	}
	if out.ReadAhead == 0 {
		out.ReadAhead = defaultReadAhead
	}
	return out
}

// GetTimeout returns the per-request timeout, zero when unset
func (r RegistryConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(r.Timeout)
	return d
}

// GetTTL returns the cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	if c == nil || c.TTL == "" {
		return defaultCacheTTL
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return defaultCacheTTL
	}
	return d
}

// GetBackend returns the cache backend, "none" when unset
func (c *CacheConfig) GetBackend() string {
	if c == nil || c.Backend == "" {
		return CacheBackendNone
	}
	return c.Backend
}

// GetSize returns the LRU capacity
func (c *CacheConfig) GetSize() int {
	if c == nil || c.Size <= 0 {
		return defaultCacheSize
	}
	return c.Size
}

// GetAddress returns the listen address of the read API
func (s *ServerConfig) GetAddress() string {
	if s == nil || s.Address == "" {
		return defaultServerAddress
	}
	return s.Address
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	if err := c.Database.validate(); err != nil {
		return err
	}

	for name, rc := range map[string]*RegistryConfig{
		"spigot":   c.Registries.Spigot,
		"modrinth": c.Registries.Modrinth,
		"hangar":   c.Registries.Hangar,
	} {
		if err := rc.validate("registries." + name); err != nil {
			return err
		}
	}

	if err := c.Schedule.validate(); err != nil {
		return err
	}
	if err := c.Cache.validate(); err != nil {
		return err
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if d.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if d.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if d.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
			return fmt.Errorf("database.connMaxLifetime must be a valid duration: %w", err)
		}
	}
	return nil
}

func (r *RegistryConfig) validate(prefix string) error {
	if r == nil {
		return nil
	}
	if r.BaseURL != "" {
		u, err := url.Parse(r.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s.baseURL must be an absolute URL, got %q", prefix, r.BaseURL)
		}
	}
	if r.RequestsPerSecond < 0 {
		return fmt.Errorf("%s.requestsPerSecond must not be negative", prefix)
	}
	if r.Concurrency < 0 || r.ReadAhead < 0 || r.PageSize < 0 {
		return fmt.Errorf("%s: concurrency, readAhead and pageSize must not be negative", prefix)
	}
	if r.Timeout != "" {
		if _, err := time.ParseDuration(r.Timeout); err != nil {
			return fmt.Errorf("%s.timeout must be a valid duration (e.g., '30s'): %w", prefix, err)
		}
	}
	return nil
}

func (s *ScheduleConfig) validate() error {
	if s == nil {
		return nil
	}
	if s.Update == "" {
		return fmt.Errorf("schedule.update is required")
	}
	if _, err := cron.ParseStandard(s.Update); err != nil {
		return fmt.Errorf("schedule.update is not a valid cron spec: %w", err)
	}
	if s.Refresh != "" {
		if _, err := cron.ParseStandard(s.Refresh); err != nil {
			return fmt.Errorf("schedule.refresh is not a valid cron spec: %w", err)
		}
	}
	return nil
}

func (c *CacheConfig) validate() error {
	if c == nil {
		return nil
	}
	switch c.GetBackend() {
	case CacheBackendNone, CacheBackendMemory:
	case CacheBackendRedis:
		if c.Address == "" {
			return fmt.Errorf("cache.address is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis, got %q", c.Backend)
	}
	if c.TTL != "" {
		if _, err := time.ParseDuration(c.TTL); err != nil {
			return fmt.Errorf("cache.ttl must be a valid duration: %w", err)
		}
	}
	return nil
}
