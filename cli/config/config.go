// Package config loads the optional stratum.yaml CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents a stratum.yaml configuration file.
// All values are optional and act as defaults for compile/run flags.
// CLI flags always override config values.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// ExportConfig holds artifact export defaults from the config file.
type ExportConfig struct {
	// Path is the export destination: a directory or "s3://bucket/prefix".
	Path string `yaml:"path"`
	// Region is the AWS region for S3 destinations.
	Region string `yaml:"region"`
	// Endpoint is a custom S3 endpoint (R2, MinIO).
	Endpoint string `yaml:"endpoint"`
	// S3PathStyle forces path-style addressing.
	S3PathStyle bool `yaml:"s3_path_style"`
}

// AdapterConfig holds notification adapter defaults from the config file.
type AdapterConfig struct {
	// Type selects the adapter: "webhook" or "redis". Empty disables
	// notifications.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Load reads a stratum.yaml file, expands ${VAR} references in the raw
// text, and decodes it strictly: unknown keys are rejected so a config
// typo fails loudly instead of silently disabling export or notifications.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	dec := yaml.NewDecoder(strings.NewReader(ExpandEnv(string(data))))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return &cfg, nil
}
