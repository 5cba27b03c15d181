// Package ledger keeps a local SQLite record of transfer runs and of every
// ownership transfer they accepted. Public logs carry counts only; the
// ledger is where per-file history lives.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// Pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// dirPerms is used when creating the database directory.
const dirPerms = 0o700

// Run statuses stored in runs.status.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// SQL statements for ledger operations.
const (
	sqlInsertRun = `INSERT INTO runs (id, started_at, dry_run, status)
		VALUES (?, ?, ?, 'running')`

	sqlFinishRun = `UPDATE runs SET
		finished_at = ?, status = ?, scanned = ?, eligible = ?,
		transferred = ?, notify_failures = ?, error_class = ?
		WHERE id = ?`

	sqlInsertTransfer = `INSERT INTO transfers (run_id, file_id, permission_id, accepted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, file_id) DO UPDATE SET
		 permission_id = excluded.permission_id,
		 accepted_at = excluded.accepted_at`

	sqlListRuns = `SELECT id, started_at, finished_at, dry_run, status, scanned,
		eligible, transferred, notify_failures, error_class
		FROM runs ORDER BY started_at DESC, id LIMIT ?`

	sqlCountTransfers = `SELECT COUNT(*) FROM transfers`
)

// ErrRunFinished is returned when a finished run is written to again.
var ErrRunFinished = errors.New("ledger: run already finished")

// Store is the ledger database. It is the sole writer to its file.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens (creating if needed) the ledger database at dbPath and runs
// migrations.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), dirPerms); err != nil {
		return nil, fmt.Errorf("ledger: creating directory for %s: %w", dbPath, err)
	}

	// DSN parameters ensure pragmas apply to every connection from the pool.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening database %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("ledger opened", slog.String("db_path", dbPath))

	return &Store{
		db:      db,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Outcome is what a finished run reports. ErrorClass is empty on success and
// a short non-identifying label otherwise.
type Outcome struct {
	Scanned        int
	Eligible       int
	Transferred    int
	NotifyFailures int
	ErrorClass     string
}

// Run is one in-progress ledger run. It records transfers until Finish.
type Run struct {
	ID        string
	StartedAt time.Time

	store    *Store
	finished bool
}

// BeginRun inserts a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, dryRun bool) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: s.nowFunc().UTC(),
		store:     s,
	}

	if _, err := s.db.ExecContext(ctx, sqlInsertRun, run.ID, run.StartedAt.UnixNano(), dryRun); err != nil {
		return nil, fmt.Errorf("ledger: inserting run: %w", err)
	}

	return run, nil
}

// RecordTransfer stores one accepted transfer under this run.
func (r *Run) RecordTransfer(ctx context.Context, fileID, permissionID string) error {
	if r.finished {
		return ErrRunFinished
	}

	now := r.store.nowFunc().UTC().UnixNano()
	if _, err := r.store.db.ExecContext(ctx, sqlInsertTransfer, r.ID, fileID, permissionID, now); err != nil {
		return fmt.Errorf("ledger: recording transfer: %w", err)
	}

	return nil
}

// Finish marks the run succeeded (empty ErrorClass) or failed and stores its
// counts. The context is usually a fresh one: the run's own context may
// already be canceled.
func (r *Run) Finish(ctx context.Context, o Outcome) error {
	if r.finished {
		return ErrRunFinished
	}

	status := StatusSucceeded

	var errClass sql.NullString
	if o.ErrorClass != "" {
		status = StatusFailed
		errClass = sql.NullString{String: o.ErrorClass, Valid: true}
	}

	_, err := r.store.db.ExecContext(ctx, sqlFinishRun,
		r.store.nowFunc().UTC().UnixNano(), status,
		o.Scanned, o.Eligible, o.Transferred, o.NotifyFailures, errClass,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("ledger: finishing run: %w", err)
	}

	r.finished = true

	return nil
}

// RunRecord is a stored run as listed by Runs.
type RunRecord struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	DryRun         bool       `json:"dry_run"`
	Status         string     `json:"status"`
	Scanned        int        `json:"scanned"`
	Eligible       int        `json:"eligible"`
	Transferred    int        `json:"transferred"`
	NotifyFailures int        `json:"notify_failures"`
	ErrorClass     string     `json:"error_class,omitempty"`
}

// Runs returns up to limit runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqlListRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord

	for rows.Next() {
		rec, err := scanRunRow(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterating run rows: %w", err)
	}

	return runs, nil
}

// TransferCount returns the number of transfers recorded across all runs.
func (s *Store) TransferCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, sqlCountTransfers).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: counting transfers: %w", err)
	}

	return n, nil
}

// scanRunRow scans a single row from the runs table, handling nullable
// columns with sql.Null* types.
func scanRunRow(rows *sql.Rows) (RunRecord, error) {
	var (
		rec        RunRecord
		startedAt  int64
		finishedAt sql.NullInt64
		errClass   sql.NullString
	)

	err := rows.Scan(&rec.ID, &startedAt, &finishedAt, &rec.DryRun, &rec.Status,
		&rec.Scanned, &rec.Eligible, &rec.Transferred, &rec.NotifyFailures, &errClass)
	if err != nil {
		return RunRecord{}, fmt.Errorf("ledger: scanning run row: %w", err)
	}

	rec.StartedAt = time.Unix(0, startedAt).UTC()

	if finishedAt.Valid {
		t := time.Unix(0, finishedAt.Int64).UTC()
		rec.FinishedAt = &t
	}

	rec.ErrorClass = errClass.String

	return rec, nil
}
