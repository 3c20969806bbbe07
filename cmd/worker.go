package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"

	"github.com/hypercheck/hypercheck-backend/infra"
	"github.com/hypercheck/hypercheck-backend/jobs"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/usecases"
	"github.com/hypercheck/hypercheck-backend/utils"
)

func RunWorker() error {
	// This is where we read the environment variables and set up the configuration for the application.
	pgConfig := infra.PgConfig{
		ConnectionString:   utils.GetEnv("PG_CONNECTION_STRING", ""),
		Database:           "hypercheck",
		Hostname:           utils.GetEnv("PG_HOSTNAME", ""),
		Password:           utils.GetEnv("PG_PASSWORD", ""),
		Port:               utils.GetEnv("PG_PORT", "5432"),
		User:               utils.GetEnv("PG_USER", ""),
		MaxPoolConnections: utils.GetEnv("PG_MAX_POOL_SIZE", 0),
		SslMode:            utils.GetEnv("PG_SSL_MODE", "prefer"),
	}
	workerConfig := struct {
		appName            string
		env                string
		loggingFormat      string
		platformAdapter    string
		caseTimeoutSeconds int
		maxWorkers         int
	}{
		appName:            "hypercheck-backend",
		env:                utils.GetEnv("ENV", "development"),
		loggingFormat:      utils.GetEnv("LOGGING_FORMAT", "text"),
		platformAdapter:    utils.GetEnv("PLATFORM_ADAPTER", "api"),
		caseTimeoutSeconds: utils.GetEnv("CASE_TIMEOUT_SECOND", 0),
		maxWorkers:         utils.GetEnv("MAX_CONCURRENT_RUNS", 5),
	}

	logger := utils.NewLogger(workerConfig.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	pool, err := infra.NewPostgresConnectionPool(ctx, pgConfig)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create connection pool", "error", err)
		return err
	}

	// First, create an insert-only client to pass to the repos. Later we create
	// another client with the queue configuration, but we need working repos
	// first. It's a bit awkward but it's a consequence of the fact that river
	// uses the same client for job insertion and job running.
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create river client", "error", err)
		return err
	}

	options := []usecases.Option{}
	if workerConfig.caseTimeoutSeconds > 0 {
		options = append(options,
			usecases.WithCaseTimeout(time.Duration(workerConfig.caseTimeoutSeconds)*time.Second))
	}
	uc := usecases.NewUsecases(
		repositories.NewExecutorGetter(pool),
		repositories.NewHypercheckDbRepository(),
		repositories.NewTaskQueueRepository(riverClient),
		newPlatformAdapter(workerConfig.platformAdapter),
		options...,
	)

	workers := river.NewWorkers()
	worker := uc.NewTestRunWorker()
	river.AddWorker(workers, &worker)

	riverClient, err = river.NewClient(riverpgxv5.New(pool), &river.Config{
		FetchPollInterval: 500 * time.Millisecond,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: workerConfig.maxWorkers},
		},
		// Must be larger than the time it takes to process a run. A full suite
		// against a slow cluster can take hours.
		RescueStuckJobsAfter: 5 * time.Hour,
		WorkerMiddleware: []rivertype.WorkerMiddleware{
			jobs.NewLoggerMiddleware(logger),
			jobs.NewRecovererMiddleware(),
		},
		Workers: workers,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create river client", "error", err)
		return err
	}

	// Runs left RUNNING by a previous worker process have no job to finish
	// them; fail them before taking new work.
	if _, err := uc.NewTestRunUsecase().RecoverOrphanedRuns(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to recover orphaned test runs", "error", err)
		return err
	}

	if err := riverClient.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to start river client", "error", err)
		return err
	}

	// Teardown sequence
	sigintOrTerm := make(chan os.Signal, 1)
	signal.Notify(sigintOrTerm, syscall.SIGINT, syscall.SIGTERM)

	go cleanStop(ctx, sigintOrTerm, riverClient)

	<-riverClient.Stopped()
	logger.InfoContext(ctx, "River client stopped")

	return nil
}

// This stop goroutine waits for SIGINT/SIGTERM and when received, tries to stop
// gracefully by allowing a chance for jobs to finish. But if that isn't
// working, a second SIGINT/SIGTERM will tell it to terminate with prejudice and
// it'll issue a hard stop that cancels the context of all active jobs. In
// case that doesn't work, a third SIGINT/SIGTERM ignores River's stop procedure
// completely and exits uncleanly.
func cleanStop(ctx context.Context, sigintOrTerm chan os.Signal, riverClient *river.Client[pgx.Tx]) {
	logger := utils.LoggerFromContext(ctx)
	<-sigintOrTerm
	logger.InfoContext(ctx, "Received SIGINT/SIGTERM; initiating soft stop (try to wait for jobs to finish)")

	softStopCtx, softStopCtxCancel := context.WithTimeout(ctx, 10*time.Second)
	defer softStopCtxCancel()

	go func() {
		select {
		case <-sigintOrTerm:
			logger.InfoContext(ctx, "Received SIGINT/SIGTERM again; initiating hard stop (cancel everything)")
			softStopCtxCancel()
		case <-softStopCtx.Done():
			logger.InfoContext(ctx, "Soft stop timeout; initiating hard stop (cancel everything)")
		}
	}()

	err := riverClient.Stop(softStopCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "Soft stop failed", "error", err)
		panic(err)
	}
	if err == nil {
		logger.InfoContext(ctx, "Soft stop succeeded")
		return
	}

	hardStopCtx, hardStopCtxCancel := context.WithTimeout(ctx, 10*time.Second)
	defer hardStopCtxCancel()

	// As long as all jobs respect context cancellation, StopAndCancel will
	// always work. However, in the case of a bug where a job blocks despite
	// being cancelled, it may be necessary to either ignore River's stop
	// result (what's shown here) or have a supervisor kill the process.
	err = riverClient.StopAndCancel(hardStopCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		logger.InfoContext(ctx, "Hard stop timeout; ignoring stop procedure and exiting unsafely")
	} else if err != nil {
		panic(err)
	}
	// hard stop succeeded
}
