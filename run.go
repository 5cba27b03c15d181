package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghive/ghive/internal/config"
	"github.com/ghive/ghive/internal/drive"
	"github.com/ghive/ghive/internal/ledger"
	"github.com/ghive/ghive/internal/notify"
	"github.com/ghive/ghive/internal/transfer"
)

// driveBaseURL is the Drive API endpoint. Tests point it at a local server.
var driveBaseURL = drive.DefaultBaseURL

// finishTimeout bounds the ledger write that closes a run. It runs on a
// context detached from cancellation so an interrupted run is still recorded.
const finishTimeout = 10 * time.Second

func newRunCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Accept every eligible pending ownership transfer",
		Long: `Lists files owned by the allowed users, keeps those with a pending
ownership transfer to the service account inside the allowed folders, and
accepts each one in turn. Accepted transfers are recorded in the local ledger
and announced on the configured webhook.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransfers(cmd.Context(), cmd.OutOrStdout(), resolvedCfg, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report eligible transfers without accepting them")

	return cmd
}

func runTransfers(ctx context.Context, out io.Writer, cfg *config.Config, dryRun bool) error {
	logger := buildLogger(cfg)
	ctx, stop := shutdownContext(ctx, logger)
	defer stop()

	release, err := acquireRunLock(cfg.State.LockPath)
	if err != nil {
		return err
	}
	defer release()

	client, err := newDriveClient(ctx, cfg, logger)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	store, err := ledger.Open(ctx, cfg.State.DBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.BeginRun(ctx, dryRun)
	if err != nil {
		return err
	}

	opts := transfer.Options{DryRun: dryRun}
	if dryRun {
		statusf("Dry run: no ownership transfers will be accepted\n")
	} else {
		opts.Recorder = run
	}

	orch := transfer.NewOrchestrator(policyFromConfig(cfg), client, client, notifier, opts, logger)
	sum, runErr := orch.Run(ctx)

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	outcome := ledger.Outcome{
		Scanned:        sum.Scanned,
		Eligible:       sum.Eligible,
		Transferred:    sum.Transferred,
		NotifyFailures: sum.NotifyFailures,
		ErrorClass:     drive.Class(runErr),
	}

	if err := run.Finish(finishCtx, outcome); err != nil {
		logger.Warn("failed to record run outcome in ledger", slog.String("error", err.Error()))
	}

	printSummary(out, sum, dryRun)

	return runErr
}

// printSummary writes the counts of a run. Like the logs, it names no file
// or user.
func printSummary(w io.Writer, sum transfer.Summary, dryRun bool) {
	verb := "transferred"
	count := sum.Transferred

	if dryRun {
		verb = "would transfer"
		count = sum.Eligible
	}

	fmt.Fprintf(w, "Scanned %d files: %s %d", sum.Scanned, verb, count)

	if skipped := sum.Scanned - sum.Eligible; skipped > 0 {
		fmt.Fprintf(w, ", skipped %d (%d malformed, %d without pending transfer, %d outside allowed folders)",
			skipped,
			sum.Skipped[transfer.VerdictMalformed],
			sum.Skipped[transfer.VerdictNoPendingTransfer],
			sum.Skipped[transfer.VerdictOutsideFolders],
		)
	}

	if sum.NotifyFailures > 0 {
		fmt.Fprintf(w, ", %d notifications failed", sum.NotifyFailures)
	}

	fmt.Fprintln(w)
}

func policyFromConfig(cfg *config.Config) transfer.Policy {
	return transfer.Policy{
		ServiceAccountEmail: cfg.ServiceAccount.Email,
		UserEmails:          cfg.Policy.UserEmails,
		RootFolders:         cfg.Policy.RootFolders,
	}
}

// newDriveClient builds a Drive client authenticated as the service account.
// ctx must outlive the client: token refreshes use it.
func newDriveClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*drive.Client, error) {
	httpClient := newHTTPClient(cfg)

	tokens, err := drive.NewTokenSource(ctx, drive.ServiceAccount{
		Email:      cfg.ServiceAccount.Email,
		PrivateKey: []byte(cfg.ServiceAccount.PrivateKey),
		TokenURL:   cfg.ServiceAccount.TokenURL,
	}, httpClient, logger)
	if err != nil {
		return nil, err
	}

	return drive.NewClient(driveBaseURL, httpClient, tokens, logger, cfg.Network.UserAgent), nil
}

// newNotifier returns the Discord notifier, or a no-op one when no webhook
// is configured.
func newNotifier(cfg *config.Config, logger *slog.Logger) (transfer.Notifier, error) {
	if cfg.Notify.DiscordWebhookURL == "" {
		return notify.Nop{}, nil
	}

	return notify.NewDiscord(cfg.Notify.DiscordWebhookURL, cfg.ServiceAccount.Email, newHTTPClient(cfg), logger)
}
