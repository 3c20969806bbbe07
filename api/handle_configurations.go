package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hypercheck/hypercheck-backend/dto"
	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/pure_utils"
	"github.com/hypercheck/hypercheck-backend/usecases"
)

func handleListCaseCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"catalog": pure_utils.Map(models.CaseCatalog, dto.AdaptCaseDefinitionDto),
	})
}

func handleListConfigurations(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		usecase := uc.NewTestConfigurationUsecase()
		configs, err := usecase.ListConfigurations(c.Request.Context())
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"configurations": pure_utils.Map(configs, dto.AdaptTestConfigurationDto),
		})
	}
}

func handleCreateConfiguration(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		var body dto.CreateTestConfigurationBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		usecase := uc.NewTestConfigurationUsecase()
		config, err := usecase.CreateConfiguration(c.Request.Context(),
			dto.AdaptCreateTestConfigurationInput(body))
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"configuration": dto.AdaptTestConfigurationDto(config),
		})
	}
}

func handleGetConfiguration(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		configurationId := c.Param("configuration_id")

		usecase := uc.NewTestConfigurationUsecase()
		config, err := usecase.GetConfiguration(c.Request.Context(), configurationId)
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"configuration": dto.AdaptTestConfigurationDto(config),
		})
	}
}

func handleUpdateConfiguration(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		configurationId := c.Param("configuration_id")

		var body dto.UpdateTestConfigurationBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		usecase := uc.NewTestConfigurationUsecase()
		config, err := usecase.UpdateConfiguration(c.Request.Context(),
			dto.AdaptUpdateTestConfigurationInput(configurationId, body))
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"configuration": dto.AdaptTestConfigurationDto(config),
		})
	}
}

func handleDeleteConfiguration(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		configurationId := c.Param("configuration_id")

		usecase := uc.NewTestConfigurationUsecase()
		err := usecase.DeleteConfiguration(c.Request.Context(), configurationId)
		if presentError(c, err) {
			return
		}
		c.Status(http.StatusNoContent)
	}
}
