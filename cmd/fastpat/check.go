package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/klyr/fastpat/internal/buffers"
	"github.com/klyr/fastpat/internal/config"
	"github.com/klyr/fastpat/internal/logging"
	"github.com/klyr/fastpat/internal/observability"
	"github.com/klyr/fastpat/internal/prefilter"
	"github.com/klyr/fastpat/internal/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type checkOptions struct {
	showPatterns bool
	failOnReject bool
}

func newCheckCmd() *cobra.Command {
	var configPath string
	var ruleFiles []string
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compile rule files and report rejected rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, append(ruleFiles, args...))
			if err != nil {
				return err
			}
			return runCheck(cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringSliceVar(&ruleFiles, "rules", nil, "Rule files to compile (in addition to the config)")
	cmd.Flags().BoolVar(&opts.showPatterns, "patterns", false, "Print the selected fast pattern of every rule")
	cmd.Flags().BoolVar(&opts.failOnReject, "strict", false, "Exit non-zero when any rule is rejected")

	return cmd
}

func runCheck(out io.Writer, cfg *config.Config, opts checkOptions) error {
	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	registry, err := cfg.Registry()
	if err != nil {
		var cerr *buffers.ConfigurationError
		if errors.As(err, &cerr) {
			logger.Error("buffer registry setup failed", zap.Error(cerr))
		}
		return err
	}

	loader := rules.NewLoader(logger)

	var promReg *prometheus.Registry
	if cfg.Metrics.Enabled {
		promReg = prometheus.NewRegistry()
		loader.Metrics = observability.NewMetrics(promReg)
		loader.Metrics.SetRegistryEntries(registry.Len())
	}

	if cfg.Rules.DiagnosticsLog != "" {
		diag, closer, err := logging.OpenDiagnosticLog(cfg.ResolvePath(cfg.Rules.DiagnosticsLog))
		if err != nil {
			return err
		}
		defer func() { _ = closer() }()
		loader.Diagnostics = diag
	}

	rs, err := loader.LoadFiles(cfg.RuleFiles()...)
	if err != nil {
		return err
	}

	set := prefilter.Build(rs.Signatures, registry)
	for _, g := range set.Groups {
		for _, p := range g.Patterns {
			loader.Metrics.FastPatternSelected(g.Buffer.String(), string(p.Mode))
		}
	}

	logger.Info("rules compiled",
		zap.Int("loaded", len(rs.Signatures)),
		zap.Int("rejected", len(rs.Rejected)),
		zap.Int("fast_patterns", set.Len()),
		zap.Int("unfiltered", len(set.Unfiltered)),
	)

	if err := writeCheckOutput(out, rs, set, opts); err != nil {
		return err
	}

	if promReg != nil {
		if err := observability.WriteTextfile(cfg.ResolvePath(cfg.Metrics.Textfile), promReg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if opts.failOnReject && len(rs.Rejected) > 0 {
		return fmt.Errorf("%d rule(s) rejected", len(rs.Rejected))
	}
	return nil
}

func writeCheckOutput(out io.Writer, rs *rules.Ruleset, set *prefilter.Set, opts checkOptions) error {
	for _, r := range rs.Rejected {
		if _, err := fmt.Fprintf(out, "%s:%d: %s [%s]\n", r.File, r.Line, r.Err, r.Err.Reason); err != nil {
			return err
		}
	}

	if opts.showPatterns {
		for _, g := range set.Groups {
			if _, err := fmt.Fprintf(out, "%s:\n", g.Buffer); err != nil {
				return err
			}
			for _, p := range g.Patterns {
				nocase := ""
				if p.Nocase {
					nocase = " nocase"
				}
				if _, err := fmt.Fprintf(out, "  sid %d %s %q%s\n", p.SID, p.Mode, p.Bytes, nocase); err != nil {
					return err
				}
			}
		}
		for _, sid := range set.Unfiltered {
			if _, err := fmt.Fprintf(out, "  sid %d has no fast pattern\n", sid); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(out, "loaded=%d rejected=%d fast_patterns=%d\n", len(rs.Signatures), len(rs.Rejected), set.Len())
	return err
}
