package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hypercheck/hypercheck-backend/dto"
	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/pure_utils"
	"github.com/hypercheck/hypercheck-backend/usecases"
)

func handleSubmitTestRun(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		configurationId := c.Param("configuration_id")

		usecase := uc.NewTestRunUsecase()
		run, err := usecase.SubmitTestRun(c.Request.Context(), configurationId, models.TriggerOriginManual)
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"run": dto.AdaptTestRunDto(run),
		})
	}
}

func handleListTestRuns(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		filters := models.ListTestRunsFilters{
			ConfigurationId: c.Query("configuration_id"),
		}
		if status := c.Query("status"); status != "" {
			filters.Status = []models.TestRunStatus{models.TestRunStatusFrom(status)}
		}

		usecase := uc.NewTestRunUsecase()
		runs, err := usecase.ListTestRuns(c.Request.Context(), filters)
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"runs": pure_utils.Map(runs, dto.AdaptTestRunDto),
		})
	}
}

func handleGetTestRun(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		runId := c.Param("run_id")

		usecase := uc.NewTestRunUsecase()
		run, err := usecase.GetTestRun(c.Request.Context(), runId)
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"run": dto.AdaptTestRunDto(run),
		})
	}
}

func handleCancelTestRun(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		runId := c.Param("run_id")

		usecase := uc.NewTestRunUsecase()
		err := usecase.CancelTestRun(c.Request.Context(), runId)
		if presentError(c, err) {
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func handleGetRunReport(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		runId := c.Param("run_id")

		usecase := uc.NewTestRunUsecase()
		report, err := usecase.GetRunReport(c.Request.Context(), runId)
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusOK, dto.AdaptRunReportDto(report))
	}
}
