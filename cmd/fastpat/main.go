package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klyr/fastpat/internal/buffers"
	"github.com/klyr/fastpat/internal/config"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var verr *config.ValidationError
		var cerr *buffers.ConfigurationError
		switch {
		case errors.As(err, &verr):
			for _, msg := range verr.Problems {
				fmt.Fprintln(os.Stderr, msg)
			}
		case errors.As(err, &cerr):
			fmt.Fprintln(os.Stderr, "fatal:", cerr)
			os.Exit(2)
		default:
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fastpat",
		Short:         "Fast pattern compiler for detection rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCheckCmd())
	root.AddCommand(newRegistryCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a fastpat configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("config path is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "config ok"); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version=%s commit=%s buildDate=%s\n", version, commit, buildDate)
		},
	}
}

// loadConfig reads configPath, or builds an ad-hoc config from rule files.
func loadConfig(configPath string, ruleFiles []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configPath != "":
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		// command line paths are relative to the working directory, not
		// to the config file
		for _, f := range ruleFiles {
			abs, err := filepath.Abs(f)
			if err != nil {
				return nil, fmt.Errorf("resolve rules path: %w", err)
			}
			cfg.Rules.Files = append(cfg.Rules.Files, abs)
		}
	case len(ruleFiles) > 0:
		cfg = config.ForRuleFiles(ruleFiles...)
	default:
		return nil, errors.New("config path or --rules is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
