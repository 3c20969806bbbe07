package models

import (
	"time"
)

// TestCaseResult is the outcome of one adapter invocation. Results are
// immutable once written and ordered by Index within their run.
type TestCaseResult struct {
	Id        string
	TestRunId string
	Index     int
	Category  string
	Name      string
	Status    CaseStatus
	Duration  time.Duration
	Message   string
	Logs      map[string]any
	CreatedAt time.Time
}

type CaseStatus int

const (
	CasePass CaseStatus = iota
	CaseFail
	CaseSkip
	CaseError
)

func (s CaseStatus) String() string {
	switch s {
	case CasePass:
		return "pass"
	case CaseFail:
		return "fail"
	case CaseSkip:
		return "skip"
	case CaseError:
		return "error"
	}
	return "error"
}

func CaseStatusFrom(s string) CaseStatus {
	switch s {
	case "pass":
		return CasePass
	case "fail":
		return CaseFail
	case "skip":
		return CaseSkip
	case "error":
		return CaseError
	}
	return CaseError
}

type CreateTestCaseResultInput struct {
	TestRunId string
	Index     int
	Category  string
	Name      string
	Status    CaseStatus
	Duration  time.Duration
	Message   string
	Logs      map[string]any
}
