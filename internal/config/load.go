package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// Load reads a YAML config. Unknown keys are rejected so a misspelled
// option does not silently fall back to its default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.baseDir = filepath.Dir(absPath)
	cfg.applyDefaults()

	return &cfg, nil
}

// ForRuleFiles builds a config for ad-hoc runs that name rule files on the
// command line instead of in a config file.
func ForRuleFiles(files ...string) *Config {
	cfg := &Config{
		ConfigVersion: 1,
		Rules:         RulesConfig{Files: append([]string(nil), files...)},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func (c *Config) resolvePath(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	base := c.baseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}
