package models

import (
	"time"
)

// RunReport is a read-mostly projection over a run, its case results and its
// resource ledger. It is rebuilt on demand and never the source of truth.
type RunReport struct {
	Run            TestRun
	Cases          []TestCaseResult
	Ledger         []ResourceLedgerEntry
	Totals         ReportTotals
	CleanupSummary CleanupSummary
}

type ReportTotals struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errored int
	// PassPercentage is passed / (total - skipped), in percent. Skipped cases
	// are excluded from the denominator; 0 when no case was applicable.
	PassPercentage float64
}

type CleanupSummary struct {
	Tracked       int
	Cleaned       int
	Pending       int
	Failed        int
	FailedEntries []ResourceLedgerEntry
}

type RunSummary struct {
	Id              string
	ConfigurationId string
	TriggerOrigin   TriggerOrigin
	Status          TestRunStatus
	Counters        RunCounters
	CreatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

func (r TestRun) Summary() RunSummary {
	return RunSummary{
		Id:              r.Id,
		ConfigurationId: r.ConfigurationId,
		TriggerOrigin:   r.TriggerOrigin,
		Status:          r.Status,
		Counters:        r.Counters,
		CreatedAt:       r.CreatedAt,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
	}
}

// BuildRunReport materializes the report from its parts. Counts are recomputed
// from the case results rather than trusted from the run counters.
func BuildRunReport(run TestRun, cases []TestCaseResult, ledger []ResourceLedgerEntry) RunReport {
	totals := ReportTotals{Total: len(cases)}
	for _, c := range cases {
		switch c.Status {
		case CasePass:
			totals.Passed++
		case CaseFail:
			totals.Failed++
		case CaseSkip:
			totals.Skipped++
		case CaseError:
			totals.Errored++
		}
	}
	if applicable := totals.Total - totals.Skipped; applicable > 0 {
		totals.PassPercentage = 100 * float64(totals.Passed) / float64(applicable)
	}

	summary := CleanupSummary{Tracked: len(ledger)}
	for _, entry := range ledger {
		switch entry.CleanupState {
		case CleanupDone:
			summary.Cleaned++
		case CleanupPending:
			summary.Pending++
		case CleanupFailed:
			summary.Failed++
			summary.FailedEntries = append(summary.FailedEntries, entry)
		}
	}

	return RunReport{
		Run:            run,
		Cases:          cases,
		Ledger:         ledger,
		Totals:         totals,
		CleanupSummary: summary,
	}
}
