package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klyr/fastpat/internal/buffers"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "local.rules", "content:\"one\"; sid:1;\n")
	path := writeFile(t, dir, "fastpat.yaml", `configVersion: 1
rules:
  files: [local.rules]
  diagnosticsLog: logs/diag.jsonl
buffers:
  priorities:
    http_cookie: 1
logging:
  level: debug
  format: console
metrics:
  enabled: true
  textfile: fastpat.prom
`)
	if err := os.Mkdir(filepath.Join(dir, "logs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			t.Fatalf("unexpected problems: %v", verr.Problems)
		}
		t.Fatalf("Validate error: %v", err)
	}

	files := cfg.RuleFiles()
	if len(files) != 1 || files[0] != filepath.Join(dir, "local.rules") {
		t.Fatalf("unexpected rule files %v", files)
	}

	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry error: %v", err)
	}
	if first := reg.Entries()[0]; first.Kind != buffers.HTTPCookie || first.Priority != 1 {
		t.Fatalf("expected cookie override first, got %+v", first)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := &Config{
		ConfigVersion: 2,
		Rules:         RulesConfig{Files: []string{"missing.rules"}},
		Buffers:       BuffersConfig{Priorities: map[string]int{"http_bogus": 1, "http_uri": -1}},
		Logging:       LoggingConfig{Level: "loud", Format: "xml"},
		Metrics:       MetricsConfig{Enabled: true},
		baseDir:       t.TempDir(),
	}

	err := cfg.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	want := []string{
		"buffers.priorities.http_bogus is not a known buffer",
		"buffers.priorities.http_uri must be >= 0",
		"configVersion must be 1",
		"logging.format must be json|console",
		"logging.level must be debug|info|warn|error",
		"metrics.textfile required when metrics.enabled is true",
		"rules.files[0] invalid",
	}
	if len(verr.Problems) != len(want) {
		t.Fatalf("expected %d problems, got %v", len(want), verr.Problems)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(verr.Problems[i], prefix) {
			t.Fatalf("problem %d: expected prefix %q, got %q", i, prefix, verr.Problems[i])
		}
	}
}

func TestPriorityOverridesUnknownBuffer(t *testing.T) {
	cfg := &Config{Buffers: BuffersConfig{Priorities: map[string]int{"http_bogus": 1}}}
	if _, err := cfg.Registry(); err == nil {
		t.Fatalf("expected unknown buffer to fail")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fastpat.yaml", "configVersion: 1\nrulez: {}\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fastpat.yaml", "configVersion: 1\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
	if cfg.BaseDir() != dir {
		t.Fatalf("expected base dir %q, got %q", dir, cfg.BaseDir())
	}
}

func TestForRuleFiles(t *testing.T) {
	cfg := ForRuleFiles("a.rules")
	if cfg.ConfigVersion != 1 || len(cfg.Rules.Files) != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
