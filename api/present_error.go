package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/utils"
)

// presentError translates domain errors into HTTP statuses. Returns true when
// a response was written.
func presentError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, models.NotFoundError):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, models.BadParameterError),
		errors.Is(err, models.ErrUnknownTestCase),
		errors.Is(err, models.ErrEmptyCaseSelection),
		errors.Is(err, models.ErrInvalidRecurrenceRule),
		errors.Is(err, models.ErrInvalidResourceDefault):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, models.ConflictError),
		errors.Is(err, models.ErrConfigurationHasRuns),
		errors.Is(err, models.ErrRunNotPending):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		utils.LoggerFromContext(c.Request.Context()).ErrorContext(c.Request.Context(),
			"unexpected error handling request", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
	return true
}
