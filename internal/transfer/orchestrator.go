package transfer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ghive/ghive/internal/drive"
	"github.com/ghive/ghive/internal/folders"
	"github.com/ghive/ghive/internal/notify"
)

// Acceptor performs the ownership acceptance mutation. *drive.Client
// implements it.
type Acceptor interface {
	AcceptOwnership(ctx context.Context, fileID, permissionID string) error
}

// Notifier receives one message per accepted transfer.
type Notifier interface {
	Notify(ctx context.Context, t notify.Transfer) error
}

// Recorder persists accepted transfers. *ledger.Run implements it.
type Recorder interface {
	RecordTransfer(ctx context.Context, fileID, permissionID string) error
}

// Options tunes a run.
type Options struct {
	// DryRun evaluates files without accepting, notifying, or recording.
	DryRun bool
	// Recorder, when set, is told about every accepted transfer.
	Recorder Recorder
}

// Summary counts what a run did. It holds no file-identifying data and is
// safe to log.
type Summary struct {
	Scanned        int
	Eligible       int
	Transferred    int
	NotifyFailures int
	Skipped        map[Verdict]int
}

func (s *Summary) skip(v Verdict) {
	if s.Skipped == nil {
		s.Skipped = make(map[Verdict]int)
	}

	s.Skipped[v]++
}

// Orchestrator drives one transfer run: it streams candidate files, filters
// them, and accepts the eligible ones in listing order, one at a time.
//
// The allowed-folder set is resolved at most once per Orchestrator, on the
// first file that needs it.
type Orchestrator struct {
	policy   Policy
	files    drive.PageLister
	acceptor Acceptor
	notifier Notifier
	filter   *Filter
	opts     Options
	logger   *slog.Logger
}

// NewOrchestrator wires a run. files serves both the folder and the file
// listings. A nil notifier disables notifications.
func NewOrchestrator(
	policy Policy,
	files drive.PageLister,
	acceptor Acceptor,
	notifier Notifier,
	opts Options,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Orchestrator{
		policy:   policy,
		files:    files,
		acceptor: acceptor,
		notifier: notifier,
		filter: &Filter{
			ServiceAccountEmail: policy.ServiceAccountEmail,
			Folders:             folders.NewResolver(files, policy.RootFolders, logger),
		},
		opts:   opts,
		logger: logger,
	}
}

// Run scans every candidate file and accepts each eligible pending transfer.
// Listing, folder resolution, and acceptance failures end the run and are
// returned with the summary so far; transfers accepted before the failure
// stay accepted. Notification and ledger failures are logged and counted
// but do not end the run.
//
// Nothing identifying a file or user is logged: execution logs may be
// public.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	o.logger.Info("starting transfer scan",
		slog.Int("owner_allow_list", len(o.policy.UserEmails)),
		slog.Int("root_folder_allow_list", len(o.policy.RootFolders)),
		slog.Bool("dry_run", o.opts.DryRun),
	)

	for f, err := range drive.Paginate(ctx, o.files, FileQuery(o.policy), o.logger) {
		if err != nil {
			return sum, fmt.Errorf("transfer: listing files: %w", err)
		}

		sum.Scanned++

		d, err := o.filter.Evaluate(ctx, f)
		if err != nil {
			return sum, fmt.Errorf("transfer: resolving allowed folders: %w", err)
		}

		if !d.Eligible() {
			sum.skip(d.Verdict)
			continue
		}

		sum.Eligible++

		if o.opts.DryRun {
			o.logger.Info("would transfer ownership of a file (dry run)")
			continue
		}

		if err := o.accept(ctx, f, d, &sum); err != nil {
			return sum, err
		}
	}

	o.logger.Info("transfer scan complete",
		slog.Int("scanned", sum.Scanned),
		slog.Int("eligible", sum.Eligible),
		slog.Int("transferred", sum.Transferred),
		slog.Int("skipped_malformed", sum.Skipped[VerdictMalformed]),
		slog.Int("skipped_no_pending", sum.Skipped[VerdictNoPendingTransfer]),
		slog.Int("skipped_outside_folders", sum.Skipped[VerdictOutsideFolders]),
		slog.Int("notify_failures", sum.NotifyFailures),
	)

	return sum, nil
}

func (o *Orchestrator) accept(ctx context.Context, f drive.File, d Decision, sum *Summary) error {
	if err := o.acceptor.AcceptOwnership(ctx, f.ID, d.PermissionID); err != nil {
		return fmt.Errorf("transfer: accepting ownership: %w", err)
	}

	sum.Transferred++
	o.logger.Info("transferred ownership of a file")

	if o.opts.Recorder != nil {
		if err := o.opts.Recorder.RecordTransfer(ctx, f.ID, d.PermissionID); err != nil {
			o.logger.Warn("failed to record transfer in ledger")
		}
	}

	if err := o.notifier.Notify(ctx, transferNotice(f, d)); err != nil {
		sum.NotifyFailures++
		o.logger.Warn("failed to send transfer notification")
	}

	return nil
}

func transferNotice(f drive.File, d Decision) notify.Transfer {
	t := notify.Transfer{
		FileName: f.Name,
		FileURL:  f.WebViewLink,
	}

	if d.PreviousOwner != nil {
		t.PreviousOwnerName = d.PreviousOwner.DisplayName
		t.PreviousOwnerEmail = d.PreviousOwner.EmailAddress
	}

	return t
}
