package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/hypercheck/hypercheck-backend/api"
	"github.com/hypercheck/hypercheck-backend/infra"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/usecases"
	"github.com/hypercheck/hypercheck-backend/utils"
)

func RunServer() error {
	// This is where we read the environment variables and set up the configuration for the application.
	apiConfig := api.Configuration{
		Env:                 utils.GetEnv("ENV", "development"),
		AppName:             "hypercheck-backend",
		Port:                utils.GetRequiredEnv[string]("PORT"),
		RequestLoggingLevel: utils.GetEnv("REQUEST_LOGGING_LEVEL", "all"),
		AllowedOrigins:      splitCommaList(utils.GetEnv("ALLOWED_ORIGINS", "")),
		DefaultTimeout:      time.Duration(utils.GetEnv("DEFAULT_TIMEOUT_SECOND", 5)) * time.Second,
	}
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
	serverConfig := struct {
		loggingFormat   string
		platformAdapter string
	}{
		loggingFormat:   utils.GetEnv("LOGGING_FORMAT", "text"),
		platformAdapter: utils.GetEnv("PLATFORM_ADAPTER", "api"),
	}

	logger := utils.NewLogger(serverConfig.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	pool, err := infra.NewPostgresConnectionPool(ctx, pgConfig)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create connection pool", "error", err)
		return err
	}

	// The API process only inserts jobs, so an insert-only river client is enough.
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create river client", "error", err)
		return err
	}

	uc := usecases.NewUsecases(
		repositories.NewExecutorGetter(pool),
		repositories.NewHypercheckDbRepository(),
		repositories.NewTaskQueueRepository(riverClient),
		newPlatformAdapter(serverConfig.platformAdapter),
	)

	router := api.InitRouterMiddlewares(ctx, apiConfig)
	server := api.NewServer(router, apiConfig, uc)

	notify, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.InfoContext(ctx, "starting server", slog.String("port", apiConfig.Port))
		err := server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "error while serving the app", "error", err)
		}
		logger.InfoContext(ctx, "server returned")
	}()

	<-notify.Done()
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "error while shutting down the server", "error", err)
		return err
	}
	return nil
}

func splitCommaList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
