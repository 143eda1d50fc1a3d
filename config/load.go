package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables read by the loader, e.g.
// DETECTOR_JWT_SECRET overrides jwt.secret.
const envPrefix = "DETECTOR"

// configSearchPaths lists where a config file is looked for when no
// explicit path is given, in order.
var configSearchPaths = []string{
	"./cmd/detector-api/config.yml",
	"./config.yml",
	"../config.yml",
}

// envSearchPaths lists where a .env file is looked for, in order.
var envSearchPaths = []string{
	"./.env",
	"./cmd/detector-api/.env",
	"../.env",
}

// Option customizes Load.
type Option func(*loadOptions)

type loadOptions struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// Load reads the configuration. The YAML file provides the base, the .env
// file fills the process environment, and DETECTOR_-prefixed environment
// variables win over both. Missing files are not an error; invalid content
// is.
func Load(opts ...Option) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile == "" {
		o.envFile = firstExisting(envSearchPaths)
	}
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return nil, fmt.Errorf("config: load env file %s: %w", o.envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if o.configFile == "" {
		o.configFile = firstExisting(configSearchPaths)
	}
	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", o.configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// bindKeys registers every configurable key with viper so AutomaticEnv can
// resolve it even when the key is absent from the config file.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"name", "environment", "version",
		"logging.level", "logging.format", "logging.output",
		"logging.no_color", "logging.timestamp", "logging.caller",
		"server.host", "server.port",
		"server.read_timeout", "server.write_timeout", "server.idle_timeout",
		"database.dsn", "database.max_open_conns", "database.max_idle_conns",
		"database.conn_max_lifetime", "database.max_retries", "database.auto_migrate",
		"jwt.secret", "jwt.ttl",
		"oauth.github.base_url", "oauth.github.timeout",
		"detector.url", "detector.endpoint", "detector.timeout",
		"detector.model_name", "detector.max_upload_bytes",
	}
	for _, key := range keys {
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(key)
	}
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
