// Package config provides configuration management for CareBoard.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
	_ "time/tzdata"
)

// Config holds the complete application configuration.
type Config struct {
	Facility FacilityConfig `toml:"facility"`
	Models   ModelsConfig   `toml:"models"`
	Search   SearchConfig   `toml:"search"`
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Display  DisplayConfig  `toml:"display"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
}

// FacilityConfig contains the care facility's identity.
type FacilityConfig struct {
	Name     string `toml:"name"`
	Code     string `toml:"code"`
	Capacity int    `toml:"capacity"`
	Timezone string `toml:"timezone"`
}

// ModelsConfig points the inference pipeline at the model backend.
type ModelsConfig struct {
	BaseURL              string `toml:"base_url"`
	TimeoutMS            int    `toml:"timeout_ms"`
	MaxBatchRows         int    `toml:"max_batch_rows"`
	NutritionConcurrency int    `toml:"nutrition_concurrency"`
}

// SearchConfig controls the supplement search proxy.
type SearchConfig struct {
	BaseURL         string `toml:"base_url"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
	MaxItems        int    `toml:"max_items"`
	UserAgent       string `toml:"user_agent"`
}

// ServerConfig controls the model backend HTTP server.
type ServerConfig struct {
	Listen         string   `toml:"listen"`
	GuidelinesPath string   `toml:"guidelines_path"`
	CORSOrigins    []string `toml:"cors_origins"`
}

// StorageConfig selects where stored inference batches live.
type StorageConfig struct {
	Driver    StorageDriver `toml:"driver"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
}

// StorageDriver names a key-value backend.
type StorageDriver string

const (
	StorageDriverSQLite StorageDriver = "sqlite"
	StorageDriverRedis  StorageDriver = "redis"
)

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	ColorScheme ColorScheme `toml:"color_scheme"`
	DateFormat  string      `toml:"date_format"`
	TimeFormat  string      `toml:"time_format"`
	// RefreshSeconds is how often the TUI checks stored batches for changes.
	RefreshSeconds int `toml:"refresh_seconds"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeGreenPhosphor ColorScheme = "green_phosphor"
	ColorSchemeAmber         ColorScheme = "amber"
	ColorSchemeWhite         ColorScheme = "white"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      LogLevel `toml:"level"`
	File       string   `toml:"file"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls SQLite database settings.
type DatabaseConfig struct {
	Path                string `toml:"path"`
	BackupIntervalHours int    `toml:"backup_interval_hours"`
	BackupRetentionDays int    `toml:"backup_retention_days"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Facility.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("facility: %w", err))
	}

	if err := c.Models.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("models: %w", err))
	}

	if err := c.Search.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("search: %w", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the facility configuration is valid.
func (f *FacilityConfig) Validate() error {
	var errs []error

	if f.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}

	if f.Capacity < 1 {
		errs = append(errs, errors.New("capacity must be positive"))
	}

	if f.Timezone != "" {
		if _, err := time.LoadLocation(f.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid timezone: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the models configuration is valid.
func (m *ModelsConfig) Validate() error {
	var errs []error

	if err := validateURL(m.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	}

	if m.TimeoutMS <= 0 {
		errs = append(errs, errors.New("timeout_ms must be positive"))
	}

	if m.MaxBatchRows < 1 {
		errs = append(errs, errors.New("max_batch_rows must be positive"))
	}

	if m.NutritionConcurrency < 1 {
		errs = append(errs, errors.New("nutrition_concurrency must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Timeout returns the per-request timeout.
func (m *ModelsConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMS) * time.Millisecond
}

// Validate checks that the search configuration is valid.
func (s *SearchConfig) Validate() error {
	var errs []error

	if err := validateURL(s.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	}

	if s.CacheTTLMinutes < 0 {
		errs = append(errs, errors.New("cache_ttl_minutes must be non-negative"))
	}

	if s.MaxItems < 1 {
		errs = append(errs, errors.New("max_items must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// CacheTTL returns the search result lifetime.
func (s *SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMinutes) * time.Minute
}

// Validate checks that the server configuration is valid.
func (s *ServerConfig) Validate() error {
	if s.Listen == "" {
		return errors.New("listen is required")
	}
	return nil
}

// Validate checks that the storage configuration is valid.
func (s *StorageConfig) Validate() error {
	var errs []error

	switch s.Driver {
	case StorageDriverSQLite, "":
	case StorageDriverRedis:
		if s.RedisAddr == "" {
			errs = append(errs, errors.New("redis_addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid driver: %s", s.Driver))
	}

	if s.RedisDB < 0 {
		errs = append(errs, errors.New("redis_db must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	var errs []error

	validSchemes := map[ColorScheme]bool{
		ColorSchemeGreenPhosphor: true,
		ColorSchemeAmber:         true,
		ColorSchemeWhite:         true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		errs = append(errs, fmt.Errorf("invalid color_scheme: %s", d.ColorScheme))
	}

	if d.RefreshSeconds < 0 {
		errs = append(errs, errors.New("refresh_seconds must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		errs = append(errs, fmt.Errorf("invalid log level: %s", l.Level))
	}

	if l.MaxSizeMB < 0 {
		errs = append(errs, errors.New("max_size_mb must be non-negative"))
	}

	if l.MaxBackups < 0 {
		errs = append(errs, errors.New("max_backups must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	if d.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if d.BackupIntervalHours < 0 {
		errs = append(errs, errors.New("backup_interval_hours must be non-negative"))
	}

	if d.BackupRetentionDays < 0 {
		errs = append(errs, errors.New("backup_retention_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Facility: FacilityConfig{
			Name:     "Sunrise Care Center",
			Code:     "SCC-01",
			Capacity: 120,
			Timezone: "Asia/Seoul",
		},
		Models: ModelsConfig{
			BaseURL:              "http://127.0.0.1:8000",
			TimeoutMS:            4500,
			MaxBatchRows:         120,
			NutritionConcurrency: 4,
		},
		Search: SearchConfig{
			BaseURL:         "https://www.pillyze.com",
			CacheTTLMinutes: 10,
			MaxItems:        4,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Server: ServerConfig{
			Listen:      ":8000",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Storage: StorageConfig{
			Driver:    StorageDriverSQLite,
			RedisAddr: "127.0.0.1:6379",
		},
		Display: DisplayConfig{
			ColorScheme:    ColorSchemeGreenPhosphor,
			DateFormat:     "2006-01-02",
			TimeFormat:     "15:04:05",
			RefreshSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:      LogLevelInfo,
			File:       "logs/careboard.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Database: DatabaseConfig{
			Path:                "careboard.db",
			BackupIntervalHours: 24,
			BackupRetentionDays: 30,
		},
	}
}

// Location returns the facility's time zone, falling back to UTC.
func (f *FacilityConfig) Location() *time.Location {
	if f.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
