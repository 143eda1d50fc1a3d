package detector

import (
	"fmt"
	"time"
)

// Config configures the detection-service relay.
type Config struct {
	// URL is the base URL of the external detection service.
	URL string `yaml:"url" mapstructure:"url"`

	// Endpoint is the verification path (default: /verify/image).
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Timeout bounds each outbound request (default: 30s).
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// ModelName is reported back to clients in Result (default: AIDetector).
	ModelName string `yaml:"model_name" mapstructure:"model_name"`

	// MaxUploadBytes caps accepted image uploads (default: 10MiB).
	MaxUploadBytes int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "/verify/image"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.ModelName == "" {
		c.ModelName = "AIDetector"
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10 << 20
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("detector url is required")
	}
	return nil
}
