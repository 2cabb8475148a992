package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/repositories"
)

type HealthHandler struct {
	repo    repositories.RegistrantRepository
	backend string
	logger  *logrus.Logger
	version string
	started time.Time
}

func NewHealthHandler(repo repositories.RegistrantRepository, backend string, logger *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		repo:    repo,
		backend: backend,
		logger:  logger,
		version: version,
		started: time.Now(),
	}
}

// Health reports store reachability, registrant count and uptime
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if pinger, ok := h.repo.(repositories.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			h.logger.WithError(err).WithField("backend", h.backend).Error("Store health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"timestamp": time.Now().UTC(),
				"version":   h.version,
				"storage":   h.backend,
				"error":     "storage unavailable",
			})
			return
		}
	}

	count, err := h.repo.Count(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count registrants for health check")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC(),
			"version":   h.version,
			"storage":   h.backend,
			"error":     "storage unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   time.Now().UTC(),
		"version":     h.version,
		"storage":     h.backend,
		"users_count": count,
		"uptime":      time.Since(h.started).Seconds(),
	})
}
