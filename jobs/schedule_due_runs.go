package jobs

import (
	"context"

	"github.com/hypercheck/hypercheck-backend/usecases"
	"github.com/hypercheck/hypercheck-backend/utils"
)

func ScheduleDueRuns(ctx context.Context, usecases usecases.Usecases) error {
	logger := utils.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "Evaluating schedule entries")

	if err := usecases.NewScheduleRunsUsecase().ScheduleDueRuns(ctx); err != nil {
		return err
	}

	logger.DebugContext(ctx, "Done evaluating schedule entries")
	return nil
}
