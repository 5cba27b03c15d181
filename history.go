package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghive/ghive/internal/ledger"
)

const (
	defaultHistoryLimit = 20
	shortRunIDLen       = 8
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}

			cfg, err := mergeConfig(cmd)
			if err != nil {
				return err
			}

			logger := buildLogger(cfg)

			store, err := ledger.Open(cmd.Context(), cfg.State.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if asJSON {
				if runs == nil {
					runs = []ledger.RunRecord{}
				}

				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			printTable(out, historyHeaders, historyRows(runs, time.Now()))

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")

	return cmd
}

var historyHeaders = []string{"RUN", "STARTED", "DURATION", "MODE", "STATUS", "SCANNED", "TRANSFERRED", "ERROR"}

func historyRows(runs []ledger.RunRecord, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))

	for i := range runs {
		r := &runs[i]

		mode := "live"
		if r.DryRun {
			mode = "dry-run"
		}

		transferred := strconv.Itoa(r.Transferred)
		if r.DryRun {
			transferred = "(" + strconv.Itoa(r.Eligible) + ")"
		}

		errClass := r.ErrorClass
		if errClass == "" {
			errClass = "-"
		}

		id := r.ID
		if len(id) > shortRunIDLen {
			id = id[:shortRunIDLen]
		}

		rows = append(rows, []string{
			id,
			formatTime(r.StartedAt, now),
			formatDuration(r.StartedAt, r.FinishedAt),
			mode,
			r.Status,
			strconv.Itoa(r.Scanned),
			transferred,
			errClass,
		})
	}

	return rows
}
