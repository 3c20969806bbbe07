package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/hypercheck/hypercheck-backend/utils"
)

// Logger middleware

type LoggerMiddleware struct {
	river.MiddlewareDefaults

	l *slog.Logger
}

func NewLoggerMiddleware(l *slog.Logger) *LoggerMiddleware {
	return &LoggerMiddleware{l: l}
}

func (m *LoggerMiddleware) Work(ctx context.Context, job *rivertype.JobRow, doInner func(context.Context) error) error {
	logger := m.l.With(
		"job_id", job.ID,
		"job_kind", job.Kind,
		"job_attempt", job.Attempt,
		"queue", job.Queue,
		"priority", job.Priority,
	)
	start := time.Now()
	logger.InfoContext(ctx, fmt.Sprintf("Starting %s job n°%d - attempt %d", job.Kind, job.ID, job.Attempt))

	ctx = utils.StoreLoggerInContext(ctx, logger)
	if err := doInner(ctx); err != nil {
		logger.ErrorContext(ctx, fmt.Sprintf("%s job n°%d failed after %s: %s",
			job.Kind, job.ID, time.Since(start), err.Error()))
		return err
	}

	logger.InfoContext(ctx, fmt.Sprintf("%s job n°%d succeeded after %s", job.Kind, job.ID, time.Since(start)))
	return nil
}

// Recoverer middleware

type RecovererMiddleware struct {
	river.MiddlewareDefaults
}

func NewRecovererMiddleware() *RecovererMiddleware {
	return &RecovererMiddleware{}
}

func (m *RecovererMiddleware) Work(ctx context.Context, job *rivertype.JobRow, doInner func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return doInner(ctx)
}
