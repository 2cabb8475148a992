package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/models"
)

// respondError writes err as {"error": message}. Application errors keep
// their status and message; anything else is logged and reported as a 500
// with the fallback message.
func respondError(c *gin.Context, logger *logrus.Logger, err error, fallback string) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.WithError(appErr).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"code":       appErr.Code,
		}).Error(appErr.Message)
	}

	body := gin.H{"error": appErr.Message}
	if appErr.Details != "" && appErr.StatusCode < http.StatusInternalServerError {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.StatusCode, body)
}

func respondInvalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
