package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/services"
)

// WaitlistHandler serves the public signup and queue endpoints
type WaitlistHandler struct {
	registration *services.RegistrationService
	queue        *services.QueueService
	logger       *logrus.Logger
}

func NewWaitlistHandler(registration *services.RegistrationService, queue *services.QueueService, logger *logrus.Logger) *WaitlistHandler {
	return &WaitlistHandler{
		registration: registration,
		queue:        queue,
		logger:       logger,
	}
}

// Register handles POST /api/register
func (h *WaitlistHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	resp, err := h.registration.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Registration failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// QueueStatus handles GET /api/queue/:email
func (h *WaitlistHandler) QueueStatus(c *gin.Context) {
	status, err := h.queue.Status(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get queue status")
		return
	}

	c.JSON(http.StatusOK, status)
}
