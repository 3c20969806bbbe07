package cmd

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/hypercheck/hypercheck-backend/infra"
	"github.com/hypercheck/hypercheck-backend/jobs"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/usecases"
	"github.com/hypercheck/hypercheck-backend/utils"
)

func RunJobScheduler() error {
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
	jobConfig := struct {
		loggingFormat   string
		platformAdapter string
	}{
		loggingFormat:   utils.GetEnv("LOGGING_FORMAT", "text"),
		platformAdapter: utils.GetEnv("PLATFORM_ADAPTER", "api"),
	}

	logger := utils.NewLogger(jobConfig.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	pool, err := infra.NewPostgresConnectionPool(ctx, pgConfig)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create connection pool", "error", err)
		return err
	}

	// The scheduler only inserts jobs, it never works them.
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create river client", "error", err)
		return err
	}

	uc := usecases.NewUsecases(
		repositories.NewExecutorGetter(pool),
		repositories.NewHypercheckDbRepository(),
		repositories.NewTaskQueueRepository(riverClient),
		newPlatformAdapter(jobConfig.platformAdapter),
	)

	jobs.RunScheduler(ctx, uc)

	return nil
}
