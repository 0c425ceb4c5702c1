package config

import (
	"fmt"

	"github.com/klyr/fastpat/internal/buffers"
)

type Config struct {
	ConfigVersion int           `yaml:"configVersion"`
	Rules         RulesConfig   `yaml:"rules"`
	Buffers       BuffersConfig `yaml:"buffers"`
	Logging       LoggingConfig `yaml:"logging"`
	Metrics       MetricsConfig `yaml:"metrics"`

	baseDir string `yaml:"-"`
}

type RulesConfig struct {
	Files          []string `yaml:"files"`
	DiagnosticsLog string   `yaml:"diagnosticsLog"`
}

// BuffersConfig adjusts the fast pattern priority of individual buffers,
// keyed by rule-language buffer name (payload, http_uri, ...).
type BuffersConfig struct {
	Priorities map[string]int `yaml:"priorities"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

func (c *Config) BaseDir() string {
	return c.baseDir
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}

// RuleFiles returns the configured rule files resolved against the config
// directory.
func (c *Config) RuleFiles() []string {
	out := make([]string, 0, len(c.Rules.Files))
	for _, f := range c.Rules.Files {
		out = append(out, c.resolvePath(f))
	}
	return out
}

// PriorityOverrides maps the configured buffer names to kinds.
func (c *Config) PriorityOverrides() (map[buffers.Kind]int, error) {
	if len(c.Buffers.Priorities) == 0 {
		return nil, nil
	}
	out := make(map[buffers.Kind]int, len(c.Buffers.Priorities))
	for name, priority := range c.Buffers.Priorities {
		kind, ok := buffers.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown buffer %q", name)
		}
		out[kind] = priority
	}
	return out, nil
}

// Registry builds the sealed buffer registry for this configuration.
func (c *Config) Registry() (*buffers.Registry, error) {
	overrides, err := c.PriorityOverrides()
	if err != nil {
		return nil, err
	}
	return buffers.Default(overrides)
}
