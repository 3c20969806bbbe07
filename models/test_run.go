package models

import (
	"time"
)

// TestRun is one execution of a TestConfiguration. The configuration snapshot
// attached at submission time is what the run executes against; later edits to
// the configuration never affect a run that has left queued status.
type TestRun struct {
	Id              string
	ConfigurationId string
	ConfigSnapshot  TestConfiguration
	TriggerOrigin   TriggerOrigin
	Status          TestRunStatus
	CancelRequested bool
	Counters        RunCounters
	ErrorMessage    string
	CreatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

type RunCounters struct {
	Passed  int
	Failed  int
	Skipped int
	Errored int
}

func (c RunCounters) Total() int {
	return c.Passed + c.Failed + c.Skipped + c.Errored
}

type TriggerOrigin int

const (
	TriggerOriginManual TriggerOrigin = iota
	TriggerOriginScheduled
)

func (o TriggerOrigin) String() string {
	switch o {
	case TriggerOriginManual:
		return "manual"
	case TriggerOriginScheduled:
		return "scheduled"
	}
	return "manual"
}

func TriggerOriginFrom(s string) TriggerOrigin {
	switch s {
	case "manual":
		return TriggerOriginManual
	case "scheduled":
		return TriggerOriginScheduled
	}
	return TriggerOriginManual
}

type TestRunStatus int

const (
	TestRunQueued TestRunStatus = iota
	TestRunRunning
	TestRunCompleted
	TestRunCompletedWithErrors
	TestRunFailed
	TestRunCancelled
)

func (s TestRunStatus) String() string {
	switch s {
	case TestRunQueued:
		return "queued"
	case TestRunRunning:
		return "running"
	case TestRunCompleted:
		return "completed"
	case TestRunCompletedWithErrors:
		return "completed_with_errors"
	case TestRunFailed:
		return "failed"
	case TestRunCancelled:
		return "cancelled"
	}
	return "queued"
}

func TestRunStatusFrom(s string) TestRunStatus {
	switch s {
	case "queued":
		return TestRunQueued
	case "running":
		return TestRunRunning
	case "completed":
		return TestRunCompleted
	case "completed_with_errors":
		return TestRunCompletedWithErrors
	case "failed":
		return TestRunFailed
	case "cancelled":
		return TestRunCancelled
	}
	return TestRunQueued
}

func (s TestRunStatus) IsTerminal() bool {
	switch s {
	case TestRunCompleted, TestRunCompletedWithErrors, TestRunFailed, TestRunCancelled:
		return true
	}
	return false
}

// legal edges of the run state machine
var testRunTransitions = map[TestRunStatus][]TestRunStatus{
	TestRunQueued:  {TestRunRunning, TestRunCancelled},
	TestRunRunning: {TestRunCompleted, TestRunCompletedWithErrors, TestRunFailed, TestRunCancelled},
}

func (s TestRunStatus) CanTransitionTo(target TestRunStatus) bool {
	for _, allowed := range testRunTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// FinalRunStatus resolves the terminal status of a run whose case loop has
// finished. Cancellation wins over everything; any failed or errored case
// degrades the run to completed_with_errors, skips alone do not.
func FinalRunStatus(cancelRequested bool, counters RunCounters) TestRunStatus {
	if cancelRequested {
		return TestRunCancelled
	}
	if counters.Failed > 0 || counters.Errored > 0 {
		return TestRunCompletedWithErrors
	}
	return TestRunCompleted
}

type CreateTestRunInput struct {
	ConfigurationId string
	ConfigSnapshot  TestConfiguration
	TriggerOrigin   TriggerOrigin
}

type UpdateTestRunStatusInput struct {
	Id                     string
	Status                 TestRunStatus
	CurrentStatusCondition TestRunStatus // optimistic locking
	Counters               *RunCounters
	ErrorMessage           *string
}

type ListTestRunsFilters struct {
	ConfigurationId string
	Status          []TestRunStatus
	TriggerOrigin   *TriggerOrigin
}
