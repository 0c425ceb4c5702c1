package main

import (
	"encoding/json"
	"fmt"

	"github.com/klyr/fastpat/internal/config"
	"github.com/spf13/cobra"
)

func newRegistryCmd() *cobra.Command {
	var configPath string
	var format string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Print the buffer priority table used for fast pattern selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := registryConfig(configPath)
			if err != nil {
				return err
			}
			registry, err := cfg.Registry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "", "text":
				for i, e := range registry.Entries() {
					if _, err := fmt.Fprintf(out, "%2d %-18s %d\n", i+1, e.Kind, e.Priority); err != nil {
						return err
					}
				}
				return nil
			case "json":
				type row struct {
					Buffer   string `json:"buffer"`
					Priority int    `json:"priority"`
				}
				rows := make([]row, 0, registry.Len())
				for _, e := range registry.Entries() {
					rows = append(rows, row{Buffer: e.Kind.String(), Priority: e.Priority})
				}
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file with buffer priority overrides")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")

	return cmd
}

// registryConfig only needs the buffer overrides, so rule files are not
// validated here.
func registryConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.ForRuleFiles(), nil
	}
	return config.Load(path)
}
