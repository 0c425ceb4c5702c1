package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.RuleLoaded()
	metrics.RuleLoaded()
	metrics.RuleRejected("invalid_signature", "duplicate_fast_pattern")
	metrics.FastPatternSelected("http_uri", "chop")
	metrics.SetRegistryEntries(14)

	if got := testutil.ToFloat64(metrics.rulesLoadedTotal); got != 2 {
		t.Fatalf("expected 2 loaded rules, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.rulesRejectedTotal.WithLabelValues("invalid_signature", "duplicate_fast_pattern")); got != 1 {
		t.Fatalf("expected 1 rejected rule, got %v", got)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("expected metrics gather to succeed: %v", err)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RuleLoaded()
	m.RuleRejected("parse_error", "syntax")
	m.FastPatternSelected("payload", "auto")
	m.SetRegistryEntries(1)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.RuleLoaded()

	path := filepath.Join(t.TempDir(), "fastpat.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "fastpat_rules_loaded_total 1") {
		t.Fatalf("textfile missing counter:\n%s", data)
	}
}
