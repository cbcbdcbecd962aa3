// Package config provides configuration loading and validation for msgbox.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags (not handled here, see cmd/msgboxd/main.go)
//  2. Environment variables (MSGBOX_* prefix)
//  3. YAML config file (if specified with --config)
//  4. Hardcoded defaults
//
// Environment variables are mapped from MSGBOX_CATEGORY_SETTING format,
// e.g., MSGBOX_REACTOR_BACKLOG maps to reactor.backlog in YAML.
//
// All configuration is validated during Load() to ensure correctness early.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// initConfig sets up the config loader with defaults, env binding, and config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Environment variable binding.
	// Uses MSGBOX_ prefix: MSGBOX_REACTOR_BACKLOG -> reactor.backlog
	v.SetEnvPrefix("MSGBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// setDefaults configures all default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("reactor.backlog", 128)

	v.SetDefault("timeouts.udp_get", "1s")
	v.SetDefault("timeouts.tcp_get", "30s")

	v.SetDefault("pool.prealloc_size", 64)

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.host", "127.0.0.1")
	v.SetDefault("admin.port", 8080)
	v.SetDefault("admin.api_key", "")
}

// loadFromSource loads configuration from file and environment.
func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	loadReactorConfig(v, cfg)
	loadTimeoutsConfig(v, cfg)
	loadPoolConfig(v, cfg)
	loadLoggingConfig(v, cfg)
	loadAdminConfig(v, cfg)

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadReactorConfig(v *viper.Viper, cfg *Config) {
	cfg.Reactor.Backlog = v.GetInt("reactor.backlog")
}

func loadTimeoutsConfig(v *viper.Viper, cfg *Config) {
	cfg.Timeouts.UDPGet = v.GetString("timeouts.udp_get")
	cfg.Timeouts.TCPGet = v.GetString("timeouts.tcp_get")
}

func loadPoolConfig(v *viper.Viper, cfg *Config) {
	cfg.Pool.PreallocSize = v.GetInt("pool.prealloc_size")
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
}

func loadAdminConfig(v *viper.Viper, cfg *Config) {
	cfg.Admin.Enabled = v.GetBool("admin.enabled")
	cfg.Admin.Host = v.GetString("admin.host")
	cfg.Admin.Port = v.GetInt("admin.port")
	cfg.Admin.APIKey = v.GetString("admin.api_key")
}

// normalizeConfig fills in anything setDefaults/loadFromSource left blank
// (e.g. a config file that sets reactor.backlog but omits logging).
func normalizeConfig(cfg *Config) error {
	if cfg.Timeouts.UDPGet == "" {
		cfg.Timeouts.UDPGet = "1s"
	}
	if cfg.Timeouts.TCPGet == "" {
		cfg.Timeouts.TCPGet = "30s"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}
	if cfg.Admin.Host == "" {
		cfg.Admin.Host = "127.0.0.1"
	}
	return nil
}

// UDPGetDuration parses Timeouts.UDPGet, falling back to 1s if it's not a
// valid Go duration string.
func (c *Config) UDPGetDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeouts.UDPGet); err == nil {
		return d
	}
	return time.Second
}

// TCPGetDuration parses Timeouts.TCPGet, falling back to 30s if it's not a
// valid Go duration string.
func (c *Config) TCPGetDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeouts.TCPGet); err == nil {
		return d
	}
	return 30 * time.Second
}

var validate = validator.New()

type configValidation struct {
	ReactorBacklog int    `validate:"gt=0"`
	UDPGet         string `validate:"required"`
	TCPGet         string `validate:"required"`
	PoolPrealloc   int    `validate:"gte=0"`
	AdminPort      int    `validate:"gte=1,lte=65535"`
}

// validateConfig rejects a loaded Config with structurally invalid values
// (an out-of-range port, a non-positive backlog, an unparseable timeout)
// before the engine ever starts.
func validateConfig(cfg *Config) error {
	if _, err := time.ParseDuration(cfg.Timeouts.UDPGet); err != nil {
		return fmt.Errorf("timeouts.udp_get: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Timeouts.TCPGet); err != nil {
		return fmt.Errorf("timeouts.tcp_get: %w", err)
	}

	cv := configValidation{
		ReactorBacklog: cfg.Reactor.Backlog,
		UDPGet:         cfg.Timeouts.UDPGet,
		TCPGet:         cfg.Timeouts.TCPGet,
		PoolPrealloc:   cfg.Pool.PreallocSize,
		AdminPort:      cfg.Admin.Port,
	}
	if err := validate.Struct(cv); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
