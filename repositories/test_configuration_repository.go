package repositories

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories/dbmodels"
)

func adaptTestConfigurationRow(row pgx.CollectableRow) (models.TestConfiguration, error) {
	db, err := pgx.RowToStructByName[dbmodels.DBTestConfiguration](row)
	if err != nil {
		return models.TestConfiguration{}, err
	}
	return dbmodels.AdaptTestConfiguration(db)
}

func (repo *HypercheckDbRepository) selectTestConfigurations() squirrel.SelectBuilder {
	return NewQueryBuilder().
		Select(dbmodels.SelectTestConfigurationColumns...).
		From(dbmodels.TABLE_TEST_CONFIGURATIONS)
}

func (repo *HypercheckDbRepository) CreateTestConfiguration(ctx context.Context, exec Executor,
	config models.TestConfiguration,
) error {
	profile, err := json.Marshal(config.ConnectionProfile)
	if err != nil {
		return errors.Wrap(err, "marshalling connection profile")
	}
	vmDefaults, err := json.Marshal(config.VmDefaults)
	if err != nil {
		return errors.Wrap(err, "marshalling vm defaults")
	}
	lxcDefaults, err := json.Marshal(config.LxcDefaults)
	if err != nil {
		return errors.Wrap(err, "marshalling lxc defaults")
	}
	var recurrence []byte
	if config.Recurrence != nil {
		if recurrence, err = json.Marshal(config.Recurrence); err != nil {
			return errors.Wrap(err, "marshalling recurrence rule")
		}
	}

	_, err = ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_TEST_CONFIGURATIONS).
			Columns(
				"id",
				"name",
				"description",
				"connection_profile",
				"target_node",
				"vm_defaults",
				"lxc_defaults",
				"selected_cases",
				"destructive_allowed",
				"cleanup_on_completion",
				"recurrence",
			).
			Values(
				config.Id,
				config.Name,
				config.Description,
				profile,
				config.TargetNode,
				vmDefaults,
				lxcDefaults,
				config.SelectedCases,
				config.DestructiveAllowed,
				config.CleanupOnCompletion,
				recurrence,
			),
	)
	return wrapDbError(err)
}

func (repo *HypercheckDbRepository) GetTestConfigurationById(ctx context.Context, exec Executor,
	configurationId string,
) (models.TestConfiguration, error) {
	return SqlToRow(
		ctx,
		exec,
		repo.selectTestConfigurations().Where(squirrel.Eq{"id": configurationId}),
		adaptTestConfigurationRow,
	)
}

func (repo *HypercheckDbRepository) ListTestConfigurations(ctx context.Context, exec Executor,
) ([]models.TestConfiguration, error) {
	return SqlToListOfRow(
		ctx,
		exec,
		repo.selectTestConfigurations().OrderBy("created_at DESC"),
		adaptTestConfigurationRow,
	)
}

func (repo *HypercheckDbRepository) UpdateTestConfiguration(ctx context.Context, exec Executor,
	input models.UpdateTestConfigurationInput,
) error {
	query := NewQueryBuilder().Update(dbmodels.TABLE_TEST_CONFIGURATIONS).
		Where(squirrel.Eq{"id": input.Id}).
		Set("updated_at", squirrel.Expr("now()"))

	if input.Name != nil {
		query = query.Set("name", *input.Name)
	}
	if input.Description != nil {
		query = query.Set("description", *input.Description)
	}
	if input.SelectedCases != nil {
		query = query.Set("selected_cases", input.SelectedCases)
	}
	if input.DestructiveAllowed != nil {
		query = query.Set("destructive_allowed", *input.DestructiveAllowed)
	}
	if input.CleanupOnCompletion != nil {
		query = query.Set("cleanup_on_completion", *input.CleanupOnCompletion)
	}
	if input.SetRecurrence != nil {
		recurrence, err := json.Marshal(input.SetRecurrence)
		if err != nil {
			return errors.Wrap(err, "marshalling recurrence rule")
		}
		query = query.Set("recurrence", recurrence)
	} else if input.ClearRecurrence {
		query = query.Set("recurrence", nil)
	}

	_, err := ExecBuilder(ctx, exec, query)
	return wrapDbError(err)
}

func (repo *HypercheckDbRepository) DeleteTestConfiguration(ctx context.Context, exec Executor,
	configurationId string,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Delete(dbmodels.TABLE_TEST_CONFIGURATIONS).
			Where(squirrel.Eq{"id": configurationId}),
	)
	return wrapDbError(err)
}
