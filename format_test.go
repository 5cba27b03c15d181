package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ghive/ghive/internal/ledger"
	"github.com/ghive/ghive/internal/transfer"
)

func TestPrintTable_Aligns(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"A", "LONGER"}, [][]string{
		{"wide-cell", "x"},
		{"b", "yy"},
	})

	assert.Equal(t, "A          LONGER\nwide-cell  x\nb          yy\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(90*time.Second + 400*time.Millisecond)

	assert.Equal(t, "1m30s", formatDuration(start, &end))
	assert.Equal(t, "-", formatDuration(start, nil))
}

func TestFormatTime(t *testing.T) {
	now := time.Now()
	ts := time.Date(now.Year()-1, time.March, 7, 10, 0, 0, 0, time.Local)

	assert.Equal(t, "Mar  7  "+ts.Format("2006"), formatTime(ts, now))
	assert.Contains(t, formatTime(now, now), ":")
}

func TestHistoryRows(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(2 * time.Second)

	rows := historyRows([]ledger.RunRecord{
		{ID: "0123456789abcdef", StartedAt: start, FinishedAt: &end, Status: "succeeded", Scanned: 5, Transferred: 2},
		{ID: "short", StartedAt: start, DryRun: true, Status: "running", Eligible: 3},
		{ID: "failed-run", StartedAt: start, FinishedAt: &end, Status: "failed", ErrorClass: "rate_limited"},
	}, start)

	assert.Equal(t, []string{"01234567", formatTime(start, start), "2s", "live", "succeeded", "5", "2", "-"}, rows[0])
	assert.Equal(t, "dry-run", rows[1][3])
	assert.Equal(t, "(3)", rows[1][6])
	assert.Equal(t, "-", rows[1][2])
	assert.Equal(t, "rate_limited", rows[2][7])
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer

	printSummary(&buf, transfer.Summary{Scanned: 2, Eligible: 2, Transferred: 2}, false)
	assert.Equal(t, "Scanned 2 files: transferred 2\n", buf.String())

	buf.Reset()
	printSummary(&buf, transfer.Summary{
		Scanned:        4,
		Eligible:       1,
		NotifyFailures: 1,
		Skipped:        map[transfer.Verdict]int{transfer.VerdictMalformed: 1, transfer.VerdictOutsideFolders: 2},
	}, true)
	assert.Equal(t,
		"Scanned 4 files: would transfer 1, skipped 3 (1 malformed, 0 without pending transfer, 2 outside allowed folders), 1 notifications failed\n",
		buf.String())
}
