package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the feed service
type Config struct {
	// Remote feed access
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// SQLite database holding options, transients and the image registry
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Transient store backend
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Media library location
	Media MediaConfig `yaml:"media" json:"media"`

	// HTTP surface
	Server ServerConfig `yaml:"server" json:"server"`

	// Periodic refresh
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FeedConfig holds HTTP settings for the feed and image requests
type FeedConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout" env:"IGFEED_FETCH_TIMEOUT"`
	ImageTimeout time.Duration `yaml:"image_timeout" json:"image_timeout" env:"IGFEED_IMAGE_TIMEOUT"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent" env:"IGFEED_USER_AGENT"`
}

// DatabaseConfig holds the SQLite database location
type DatabaseConfig struct {
	Path     string `yaml:"path" json:"path" env:"IGFEED_DB_PATH"`
	LogLevel string `yaml:"log_level" json:"log_level" env:"IGFEED_DB_LOG_LEVEL"`
}

// CacheConfig selects and configures the transient store
type CacheConfig struct {
	Backend       string `yaml:"backend" json:"backend" env:"IGFEED_CACHE_BACKEND"`
	KeyPrefix     string `yaml:"key_prefix" json:"key_prefix" env:"IGFEED_CACHE_KEY_PREFIX"`
	RedisURL      string `yaml:"redis_url" json:"redis_url" env:"IGFEED_REDIS_URL"`
	RedisPassword string `yaml:"redis_password" json:"redis_password" env:"IGFEED_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db" env:"IGFEED_REDIS_DB"`
}

// MediaConfig holds the media library directory
type MediaConfig struct {
	Directory string `yaml:"directory" json:"directory" env:"IGFEED_MEDIA_DIR"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr       string `yaml:"addr" json:"addr" env:"IGFEED_ADDR"`
	AdminToken string `yaml:"admin_token" json:"admin_token" env:"IGFEED_ADMIN_TOKEN"`
}

// ScheduleConfig holds the periodic refresh trigger
type ScheduleConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled" env:"IGFEED_SCHEDULE_ENABLED"`
	Spec     string        `yaml:"spec" json:"spec" env:"IGFEED_SCHEDULE_SPEC"`
	Timezone string        `yaml:"timezone" json:"timezone" env:"IGFEED_SCHEDULE_TIMEZONE"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" env:"IGFEED_SCHEDULE_TIMEOUT"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" env:"IGFEED_LOG_LEVEL"`
	File  string `yaml:"file" json:"file" env:"IGFEED_LOG_FILE"`
}

// Cache backends
const (
	BackendMemory   = "memory"
	BackendDatabase = "database"
	BackendRedis    = "redis"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			FetchTimeout: 60 * time.Second,
			ImageTimeout: 30 * time.Second,
			UserAgent:    "igfeed/2.0",
		},
		Database: DatabaseConfig{
			Path:     "igfeed.db",
			LogLevel: "silent",
		},
		Cache: CacheConfig{
			Backend:   BackendDatabase,
			KeyPrefix: "",
		},
		Media: MediaConfig{
			Directory: "./media",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Schedule: ScheduleConfig{
			Enabled:  true,
			Spec:     "0 3 * * *",
			Timezone: "UTC",
			Timeout:  15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides configuration with IGFEED_* environment variables
func (c *Config) LoadFromEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igfeed.yaml",
		".igfeed.yml",
		filepath.Join(home, ".config", "igfeed", "config.yaml"),
		filepath.Join(home, ".config", "igfeed", "config.yml"),
		filepath.Join(home, ".igfeed.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Feed.FetchTimeout <= 0 {
		errs = append(errs, errors.New("feed fetch timeout must be positive"))
	}
	if c.Feed.ImageTimeout <= 0 {
		errs = append(errs, errors.New("image timeout must be positive"))
	}

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	switch strings.ToLower(c.Cache.Backend) {
	case BackendMemory, BackendDatabase:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("redis URL is required for the redis cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid cache backend %q", c.Cache.Backend))
	}

	if c.Media.Directory == "" {
		errs = append(errs, errors.New("media directory is required"))
	}

	if c.Schedule.Enabled {
		if c.Schedule.Spec == "" {
			errs = append(errs, errors.New("schedule spec is required when the schedule is enabled"))
		}
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid schedule timezone: %w", err))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dbPath, ok := flags["db"].(string); ok && dbPath != "" {
		c.Database.Path = dbPath
	}
	if mediaDir, ok := flags["media-dir"].(string); ok && mediaDir != "" {
		c.Media.Directory = mediaDir
	}
	if backend, ok := flags["cache-backend"].(string); ok && backend != "" {
		c.Cache.Backend = backend
	}
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
	if enabled, ok := flags["schedule"].(bool); ok {
		c.Schedule.Enabled = enabled
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igfeed.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
