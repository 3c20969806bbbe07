package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The river client only accepts middlewares carrying the IsMiddleware marker.
var (
	_ rivertype.WorkerMiddleware = NewLoggerMiddleware(nil)
	_ rivertype.WorkerMiddleware = NewRecovererMiddleware()
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoggerMiddlewarePropagatesResult(t *testing.T) {
	m := NewLoggerMiddleware(discardLogger())
	job := &rivertype.JobRow{ID: 1, Kind: "test_run", Attempt: 1}

	err := m.Work(context.Background(), job, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	jobErr := errors.New("node unreachable")
	err = m.Work(context.Background(), job, func(ctx context.Context) error {
		return jobErr
	})
	assert.ErrorIs(t, err, jobErr)
}

func TestRecovererMiddlewareConvertsPanicToError(t *testing.T) {
	m := NewRecovererMiddleware()
	job := &rivertype.JobRow{ID: 1, Kind: "test_run", Attempt: 1}

	err := m.Work(context.Background(), job, func(ctx context.Context) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	err = m.Work(context.Background(), job, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}
