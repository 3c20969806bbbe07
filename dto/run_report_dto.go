package dto

import (
	"time"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/pure_utils"
)

type RunReportDto struct {
	Run            TestRunDto               `json:"run"`
	Cases          []TestCaseResultDto      `json:"cases"`
	Ledger         []ResourceLedgerEntryDto `json:"ledger"`
	Totals         ReportTotalsDto          `json:"totals"`
	CleanupSummary CleanupSummaryDto        `json:"cleanup_summary"`
}

type ReportTotalsDto struct {
	Total          int     `json:"total"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	Errored        int     `json:"errored"`
	PassPercentage float64 `json:"pass_percentage"`
}

type CleanupSummaryDto struct {
	Tracked       int                      `json:"tracked"`
	Cleaned       int                      `json:"cleaned"`
	Pending       int                      `json:"pending"`
	Failed        int                      `json:"failed"`
	FailedEntries []ResourceLedgerEntryDto `json:"failed_entries,omitempty"`
}

type ResourceLedgerEntryDto struct {
	Id           string    `json:"id"`
	Seq          int       `json:"seq"`
	Kind         string    `json:"kind"`
	Node         string    `json:"node"`
	RemoteId     string    `json:"remote_id,omitempty"`
	Confirmed    bool      `json:"confirmed"`
	CleanupState string    `json:"cleanup_state"`
	CleanupError string    `json:"cleanup_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func AdaptResourceLedgerEntryDto(entry models.ResourceLedgerEntry) ResourceLedgerEntryDto {
	return ResourceLedgerEntryDto{
		Id:           entry.Id,
		Seq:          entry.Seq,
		Kind:         string(entry.Kind),
		Node:         entry.Node,
		RemoteId:     entry.RemoteId,
		Confirmed:    entry.Confirmed,
		CleanupState: entry.CleanupState.String(),
		CleanupError: entry.CleanupError,
		CreatedAt:    entry.CreatedAt,
	}
}

func AdaptRunReportDto(report models.RunReport) RunReportDto {
	return RunReportDto{
		Run:    AdaptTestRunDto(report.Run),
		Cases:  pure_utils.Map(report.Cases, AdaptTestCaseResultDto),
		Ledger: pure_utils.Map(report.Ledger, AdaptResourceLedgerEntryDto),
		Totals: ReportTotalsDto{
			Total:          report.Totals.Total,
			Passed:         report.Totals.Passed,
			Failed:         report.Totals.Failed,
			Skipped:        report.Totals.Skipped,
			Errored:        report.Totals.Errored,
			PassPercentage: report.Totals.PassPercentage,
		},
		CleanupSummary: CleanupSummaryDto{
			Tracked:       report.CleanupSummary.Tracked,
			Cleaned:       report.CleanupSummary.Cleaned,
			Pending:       report.CleanupSummary.Pending,
			Failed:        report.CleanupSummary.Failed,
			FailedEntries: pure_utils.Map(report.CleanupSummary.FailedEntries, AdaptResourceLedgerEntryDto),
		},
	}
}
