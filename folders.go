package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghive/ghive/internal/folders"
)

func newFoldersCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Resolve the allowed folder set",
		Long: `Lists every folder visible to the service account and prints how many
fall under the configured root folders, roots included.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := resolvedCfg
			logger := buildLogger(cfg)
			ctx, stop := shutdownContext(cmd.Context(), logger)
			defer stop()
			out := cmd.OutOrStdout()

			if len(cfg.Policy.RootFolders) == 0 {
				fmt.Fprintln(out, "No root folder allow-list: files in any folder are eligible.")
				return nil
			}

			client, err := newDriveClient(ctx, cfg, logger)
			if err != nil {
				return err
			}

			allowed, err := folders.NewResolver(client, cfg.Policy.RootFolders, logger).Allowed(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%d allowed folders under %d roots\n", len(allowed), len(cfg.Policy.RootFolders))

			if list {
				for _, id := range allowed.Sorted() {
					fmt.Fprintln(out, id)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print every allowed folder id")

	return cmd
}
