package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hypercheck/hypercheck-backend/usecases"
)

func addRoutes(r *gin.Engine, uc usecases.Usecases) {
	r.GET("/liveness", handleLivenessProbe)

	r.GET("/catalog", handleListCaseCatalog)

	r.GET("/configurations", handleListConfigurations(uc))
	r.POST("/configurations", handleCreateConfiguration(uc))
	r.GET("/configurations/:configuration_id", handleGetConfiguration(uc))
	r.PATCH("/configurations/:configuration_id", handleUpdateConfiguration(uc))
	r.DELETE("/configurations/:configuration_id", handleDeleteConfiguration(uc))

	r.GET("/runs", handleListTestRuns(uc))
	r.POST("/configurations/:configuration_id/runs", handleSubmitTestRun(uc))
	r.GET("/runs/:run_id", handleGetTestRun(uc))
	r.POST("/runs/:run_id/cancel", handleCancelTestRun(uc))
	r.GET("/runs/:run_id/report", handleGetRunReport(uc))
}

func handleLivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
