package models

import (
	"github.com/cockroachdb/errors"
)

// Base errors, related to default API status codes
var (
	// BadParameterError is rendered with the http status code 400
	BadParameterError = errors.New("bad parameter")

	// NotFoundError is rendered with the http status code 404
	NotFoundError = errors.New("not found")

	// ConflictError is rendered with the http status code 409
	ConflictError = errors.New("duplicate value")
)

// Configuration related errors
var (
	ErrUnknownTestCase        = errors.Wrap(BadParameterError, "unknown test case id in selection")
	ErrInvalidRecurrenceRule  = errors.Wrap(BadParameterError, "recurrence rule is not a valid cron expression")
	ErrConfigurationHasRuns   = errors.Wrap(ConflictError, "configuration still has queued or running test runs")
	ErrEmptyCaseSelection     = errors.Wrap(BadParameterError, "configuration selects no test cases")
	ErrInvalidResourceDefault = errors.Wrap(BadParameterError, "invalid resource creation defaults")
)

// Run lifecycle related errors
var (
	ErrRunNotPending        = errors.New("test run is not in queued status")
	ErrTransitionNotAllowed = errors.New("illegal test run status transition")
)
