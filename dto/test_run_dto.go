package dto

import (
	"time"

	"github.com/hypercheck/hypercheck-backend/models"
)

type TestRunDto struct {
	Id              string         `json:"id"`
	ConfigurationId string         `json:"configuration_id"`
	TriggerOrigin   string         `json:"trigger_origin"`
	Status          string         `json:"status"`
	CancelRequested bool           `json:"cancel_requested"`
	Counters        RunCountersDto `json:"counters"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
}

type RunCountersDto struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
	Total   int `json:"total"`
}

func AdaptTestRunDto(run models.TestRun) TestRunDto {
	return TestRunDto{
		Id:              run.Id,
		ConfigurationId: run.ConfigurationId,
		TriggerOrigin:   run.TriggerOrigin.String(),
		Status:          run.Status.String(),
		CancelRequested: run.CancelRequested,
		Counters:        adaptRunCountersDto(run.Counters),
		ErrorMessage:    run.ErrorMessage,
		CreatedAt:       run.CreatedAt,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
	}
}

func adaptRunCountersDto(counters models.RunCounters) RunCountersDto {
	return RunCountersDto{
		Passed:  counters.Passed,
		Failed:  counters.Failed,
		Skipped: counters.Skipped,
		Errored: counters.Errored,
		Total:   counters.Total(),
	}
}

type TestCaseResultDto struct {
	Id         string         `json:"id"`
	Index      int            `json:"index"`
	Category   string         `json:"category"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	DurationMs int64          `json:"duration_ms"`
	Message    string         `json:"message,omitempty"`
	Logs       map[string]any `json:"logs,omitempty"`
}

func AdaptTestCaseResultDto(result models.TestCaseResult) TestCaseResultDto {
	return TestCaseResultDto{
		Id:         result.Id,
		Index:      result.Index,
		Category:   result.Category,
		Name:       result.Name,
		Status:     result.Status.String(),
		DurationMs: result.Duration.Milliseconds(),
		Message:    result.Message,
		Logs:       result.Logs,
	}
}
