// Package config loads and validates the application configuration from a
// YAML file, an optional .env file, and DETECTOR_-prefixed environment
// variables, in increasing order of precedence.
package config

import (
	"fmt"

	"github.com/aidetectsai/detector-api/auth"
	"github.com/aidetectsai/detector-api/auth/provision"
	"github.com/aidetectsai/detector-api/database"
	"github.com/aidetectsai/detector-api/detector"
	"github.com/aidetectsai/detector-api/logger"
	"github.com/aidetectsai/detector-api/server"
)

// OAuthConfig groups provider client configuration.
type OAuthConfig struct {
	GitHub provision.GitHubConfig `yaml:"github" mapstructure:"github"`
}

// Config is the whole-application configuration tree.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`

	Logging  logger.Config    `yaml:"logging" mapstructure:"logging"`
	Server   server.Config    `yaml:"server" mapstructure:"server"`
	Database database.Config  `yaml:"database" mapstructure:"database"`
	JWT      auth.TokenConfig `yaml:"jwt" mapstructure:"jwt"`
	OAuth    OAuthConfig      `yaml:"oauth" mapstructure:"oauth"`
	Detector detector.Config  `yaml:"detector" mapstructure:"detector"`
}

// ApplyDefaults fills in zero-value fields across every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "detector-api"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.JWT.ApplyDefaults()
	c.OAuth.GitHub.ApplyDefaults()
	c.Detector.ApplyDefaults()
}

// Validate checks every section. Secrets and upstream URLs have no usable
// defaults, so a fresh deployment fails here rather than at first request.
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	return nil
}
