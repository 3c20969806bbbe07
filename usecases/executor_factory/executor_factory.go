package executor_factory

import (
	"context"

	"github.com/hypercheck/hypercheck-backend/repositories"
)

type ExecutorFactory interface {
	NewExecutor() repositories.Executor
}

type TransactionFactory interface {
	Transaction(ctx context.Context, fn func(tx repositories.Transaction) error) error
}

type executorFactoryRepository interface {
	GetExecutor() repositories.Executor
	Transaction(ctx context.Context, fn func(tx repositories.Transaction) error) error
}

type DbExecutorFactory struct {
	repository executorFactoryRepository
}

func NewDbExecutorFactory(repository executorFactoryRepository) DbExecutorFactory {
	return DbExecutorFactory{repository: repository}
}

func (factory DbExecutorFactory) NewExecutor() repositories.Executor {
	return factory.repository.GetExecutor()
}

func (factory DbExecutorFactory) Transaction(
	ctx context.Context,
	f func(tx repositories.Transaction) error,
) error {
	return factory.repository.Transaction(ctx, f)
}
