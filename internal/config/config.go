// Package config provides Viper-based configuration loading for the rules server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend identifiers for StorageConfig.Backend.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// ServerConfig holds gRPC listener settings.
type ServerConfig struct {
	// GRPCHost is the bind address for the rules gRPC service.
	GRPCHost string `mapstructure:"grpc_host"`
	// GRPCPort is the TCP port for the rules gRPC service.
	GRPCPort int `mapstructure:"grpc_port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.GRPCHost, s.GRPCPort)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// AreaConfig is an axis-aligned rectangle on a single plane.
type AreaConfig struct {
	X      int `mapstructure:"x"`
	Y      int `mapstructure:"y"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	Plane  int `mapstructure:"plane"`
}

// RulesConfig holds catalog locations and exemption settings.
type RulesConfig struct {
	// CatalogPath is the base catalog (JSON or YAML).
	CatalogPath string `mapstructure:"catalog_path"`
	// SupplementaryCatalogPath is an optional catalog that replaces the base
	// catalog when it parses.
	SupplementaryCatalogPath string `mapstructure:"supplementary_catalog_path"`
	// VariantsPath is an optional raw-id → canonical-id table.
	VariantsPath string `mapstructure:"variants_path"`
	// ProvidersPath is an optional provider table; empty uses the built-in one.
	ProvidersPath string `mapstructure:"providers_path"`
	// ToolsPath is an optional tool table; empty uses the built-in one.
	ToolsPath string `mapstructure:"tools_path"`
	// ExemptZone is the area in which all spells are castable.
	ExemptZone AreaConfig `mapstructure:"exempt_zone"`
	// ExemptModes lists world modes in which all spells are castable.
	ExemptModes []string `mapstructure:"exempt_modes"`
	// OfferScriptDir holds Lua offer filter scripts; empty disables scripting.
	OfferScriptDir string `mapstructure:"offer_script_dir"`
	// ScriptInstructionLimit bounds each Lua hook invocation; 0 uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// StorageConfig selects where unlock state is persisted.
type StorageConfig struct {
	// Backend is one of "file", "postgres", "redis".
	Backend string `mapstructure:"backend"`
	// Dir is the directory holding the JSON files for the file backend.
	Dir string `mapstructure:"dir"`
	// Account scopes persisted state in shared backends.
	Account string `mapstructure:"account"`
	// Timeout bounds a single load or save against a network backend.
	Timeout time.Duration `mapstructure:"timeout"`
	// AutosaveInterval is the period of background saves; 0 disables them.
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.Storage.Backend {
	case BackendPostgres:
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr must not be empty when storage.backend is redis")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.GRPCHost == "" {
		errs = append(errs, "server.grpc_host must not be empty")
	}
	if s.GRPCPort < 1 || s.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.grpc_port must be 1-65535, got %d", s.GRPCPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateRules(r RulesConfig) error {
	var errs []string
	if r.CatalogPath == "" {
		errs = append(errs, "rules.catalog_path must not be empty")
	}
	if r.ExemptZone.Width < 0 || r.ExemptZone.Height < 0 {
		errs = append(errs, "rules.exempt_zone width and height must not be negative")
	}
	if r.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("rules.script_instruction_limit must be >= 0, got %d", r.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Backend {
	case BackendFile:
		if s.Dir == "" {
			return errors.New("storage.dir must not be empty when storage.backend is file")
		}
	case BackendPostgres, BackendRedis:
		if s.Account == "" {
			return fmt.Errorf("storage.account must not be empty when storage.backend is %s", s.Backend)
		}
	default:
		return fmt.Errorf("storage.backend must be one of [file, postgres, redis], got %q", s.Backend)
	}
	if s.Timeout < 0 {
		return errors.New("storage.timeout must not be negative")
	}
	if s.AutosaveInterval < 0 {
		return errors.New("storage.autosave_interval must not be negative")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with CHOICEMAN_ prefix
	v.SetEnvPrefix("CHOICEMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a Viper instance with all defaults applied and no file bound.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_host", "127.0.0.1")
	v.SetDefault("server.grpc_port", 50061)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "choiceman")
	v.SetDefault("database.password", "choiceman")
	v.SetDefault("database.name", "choiceman")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "choiceman")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rules.catalog_path", "content/items.json")
	v.SetDefault("rules.exempt_zone.x", 3367)
	v.SetDefault("rules.exempt_zone.y", 3890)
	v.SetDefault("rules.exempt_zone.width", 13)
	v.SetDefault("rules.exempt_zone.height", 9)
	v.SetDefault("rules.exempt_zone.plane", 0)
	v.SetDefault("rules.exempt_modes", []string{"last_man_standing"})

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.dir", "data/choiceman")
	v.SetDefault("storage.account", "default")
	v.SetDefault("storage.timeout", "5s")
	v.SetDefault("storage.autosave_interval", "1m")
}
