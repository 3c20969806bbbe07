package jobs

import (
	"context"

	"github.com/adhocore/gronx/pkg/tasker"

	"github.com/hypercheck/hypercheck-backend/usecases"
	"github.com/hypercheck/hypercheck-backend/utils"
)

func errToReturnCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

// RunScheduler blocks and evaluates schedule entries every minute. Due-ness
// is recomputed from durable state, so it is safe to restart at any point.
func RunScheduler(ctx context.Context, usecases usecases.Usecases) {
	taskr := tasker.New(tasker.Option{
		Verbose: true,
	}).WithContext(ctx)

	notConcurrent := false
	taskr.Task("* * * * *", func(ctx context.Context) (int, error) {
		logger := utils.LoggerFromContext(ctx).With("job", "schedule_due_runs")
		ctx = utils.StoreLoggerInContext(ctx, logger)
		err := ScheduleDueRuns(ctx, usecases)
		return errToReturnCode(err), err
	}, notConcurrent)

	taskr.Run()
}
