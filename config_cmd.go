package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghive/ghive/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := mergeConfig(cmd)
			if err != nil {
				return err
			}

			return config.RenderEffective(cfg, cmd.OutOrStdout())
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the effective configuration",
		// PersistentPreRunE has already resolved and validated it.
		RunE: func(cmd *cobra.Command, _ []string) error {
			source := resolvedCfg.Path
			if source == "" {
				source = "no config file"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%s)\n", source)

			return nil
		},
	}
}
