// Package config provides configuration loading for msgbox using Viper.
// Configuration is loaded from YAML files with automatic environment variable binding.
//
// Environment variables use the MSGBOX_ prefix and underscore-separated keys:
//   - MSGBOX_REACTOR_BACKLOG -> reactor.backlog
//   - MSGBOX_TIMEOUTS_UDP_GET -> timeouts.udp_get
//   - MSGBOX_ADMIN_ENABLED -> admin.enabled
package config

import (
	"os"
	"strings"
)

// ReactorConfig holds reactor settings. Backlog is validated and logged by
// cmd/msgboxd; the engine does not read it, and its TCP listeners always
// use a fixed listen backlog of 128.
type ReactorConfig struct {
	Backlog int `yaml:"backlog" mapstructure:"backlog" json:"backlog"`
}

// TimeoutsConfig controls how long Get waits for a reply. Durations are
// parsed from strings (e.g. "1s").
type TimeoutsConfig struct {
	UDPGet string `yaml:"udp_get" mapstructure:"udp_get" json:"udp_get"`
	TCPGet string `yaml:"tcp_get" mapstructure:"tcp_get" json:"tcp_get"`
}

// PoolConfig holds buffer-pool settings. PreallocSize is validated but not
// read by the engine; its header-buffer pool is not pre-allocated.
type PoolConfig struct {
	PreallocSize int `yaml:"prealloc_size" mapstructure:"prealloc_size" json:"prealloc_size"`
}

// LoggingConfig contains logging settings, unchanged in shape from the
// teacher's logging configuration.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"             json:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"        json:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format" json:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"       json:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"      json:"extra_fields,omitempty"`
}

// AdminConfig controls the optional introspection HTTP server.
//
// Note: APIKey is intentionally treated as a secret and should not be
// returned by API endpoints.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// Config is the root configuration structure.
type Config struct {
	Reactor  ReactorConfig  `yaml:"reactor"  mapstructure:"reactor"`
	Timeouts TimeoutsConfig `yaml:"timeouts" mapstructure:"timeouts"`
	Pool     PoolConfig     `yaml:"pool"     mapstructure:"pool"`
	Logging  LoggingConfig  `yaml:"logging"  mapstructure:"logging"`
	Admin    AdminConfig    `yaml:"admin"    mapstructure:"admin"`
}

// ResolveConfigPath determines the config file path from flag or environment.
func ResolveConfigPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("MSGBOX_CONFIG")); v != "" {
		return v
	}
	return ""
}

// Load loads configuration from a YAML file with environment variable overrides.
// This is the main entry point for loading configuration.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (MSGBOX_*)
//  2. Config file values
//  3. Default values
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}
