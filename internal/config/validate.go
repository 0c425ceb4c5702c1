package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klyr/fastpat/internal/buffers"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

func (c *Config) Validate() error {
	v := &ValidationError{}

	if c.ConfigVersion != 1 {
		v.Add("configVersion must be 1")
	}

	if len(c.Rules.Files) == 0 {
		v.Add("rules.files must list at least one file")
	}
	seen := map[string]struct{}{}
	for i, f := range c.Rules.Files {
		if f == "" {
			v.Add("rules.files[%d] is empty", i)
			continue
		}
		resolved := c.resolvePath(f)
		if _, exists := seen[resolved]; exists {
			v.Add("rules.files[%d] %q is duplicated", i, f)
			continue
		}
		seen[resolved] = struct{}{}
		if err := requireFile(resolved); err != nil {
			v.Add("rules.files[%d] invalid: %v", i, err)
		}
	}

	if c.Rules.DiagnosticsLog != "" {
		if err := ensureWritable(c.resolvePath(c.Rules.DiagnosticsLog)); err != nil {
			v.Add("rules.diagnosticsLog invalid: %v", err)
		}
	}

	for name, priority := range c.Buffers.Priorities {
		if _, ok := buffers.ParseKind(name); !ok {
			v.Add("buffers.priorities.%s is not a known buffer", name)
		}
		if priority < 0 {
			v.Add("buffers.priorities.%s must be >= 0", name)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		v.Add("logging.level must be debug|info|warn|error")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		v.Add("logging.format must be json|console")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Textfile == "" {
			v.Add("metrics.textfile required when metrics.enabled is true")
		} else if err := ensureWritable(c.resolvePath(c.Metrics.Textfile)); err != nil {
			v.Add("metrics.textfile invalid: %v", err)
		}
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func ensureWritable(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	file, err := os.CreateTemp(dir, "fastpat-validate-*")
	if err != nil {
		return err
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
