package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRunReportTotals(t *testing.T) {
	cases := []TestCaseResult{
		{Index: 0, Status: CasePass},
		{Index: 1, Status: CasePass},
		{Index: 2, Status: CasePass},
		{Index: 3, Status: CasePass},
		{Index: 4, Status: CasePass},
		{Index: 5, Status: CasePass},
		{Index: 6, Status: CaseFail},
	}

	report := BuildRunReport(TestRun{}, cases, nil)

	assert.Equal(t, 7, report.Totals.Total)
	assert.Equal(t, 6, report.Totals.Passed)
	assert.Equal(t, 1, report.Totals.Failed)
	assert.InDelta(t, 85.71, report.Totals.PassPercentage, 0.01)
}

func TestBuildRunReportExcludesSkipsFromPassPercentage(t *testing.T) {
	cases := []TestCaseResult{
		{Index: 0, Status: CasePass},
		{Index: 1, Status: CaseSkip},
		{Index: 2, Status: CaseSkip},
		{Index: 3, Status: CasePass},
	}

	report := BuildRunReport(TestRun{}, cases, nil)

	assert.Equal(t, 2, report.Totals.Skipped)
	assert.Equal(t, 100.0, report.Totals.PassPercentage)
}

func TestBuildRunReportAllSkipped(t *testing.T) {
	cases := []TestCaseResult{
		{Index: 0, Status: CaseSkip},
		{Index: 1, Status: CaseSkip},
	}

	report := BuildRunReport(TestRun{}, cases, nil)

	assert.Equal(t, 0.0, report.Totals.PassPercentage)
}

func TestBuildRunReportCleanupSummary(t *testing.T) {
	ledger := []ResourceLedgerEntry{
		{Seq: 1, Kind: ResourceVm, CleanupState: CleanupDone},
		{Seq: 2, Kind: ResourceSnapshot, CleanupState: CleanupPending},
		{Seq: 3, Kind: ResourceBackup, CleanupState: CleanupFailed, CleanupError: "storage unreachable"},
	}

	report := BuildRunReport(TestRun{}, nil, ledger)

	assert.Equal(t, 3, report.CleanupSummary.Tracked)
	assert.Equal(t, 1, report.CleanupSummary.Cleaned)
	assert.Equal(t, 1, report.CleanupSummary.Pending)
	assert.Equal(t, 1, report.CleanupSummary.Failed)
	assert.Len(t, report.CleanupSummary.FailedEntries, 1)
	assert.Equal(t, ResourceBackup, report.CleanupSummary.FailedEntries[0].Kind)
}
