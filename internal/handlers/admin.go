package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/services"
)

type AdminHandler struct {
	admin  *services.AdminService
	logger *logrus.Logger
}

func NewAdminHandler(admin *services.AdminService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		logger: logger,
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	list, err := h.admin.ListRegistrants(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get users")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	registrant, err := h.admin.GetRegistrant(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get user")
		return
	}
	c.JSON(http.StatusOK, registrant)
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	if err := h.admin.UpdateStatus(c.Request.Context(), c.Param("email"), req.Status); err != nil {
		respondError(c, h.logger, err, "Failed to update user status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("User status updated to %s", req.Status),
	})
}

func (h *AdminHandler) Bulk(c *gin.Context) {
	var req models.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	result, err := h.admin.Bulk(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to perform bulk update")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Clear handles DELETE /api/admin/clear. A missing body is treated as an
// unconfirmed request.
func (h *AdminHandler) Clear(c *gin.Context) {
	var req models.ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondInvalidBody(c, err)
		return
	}

	deleted, err := h.admin.Clear(c.Request.Context(), req.Confirm)
	if err != nil {
		respondError(c, h.logger, err, "Failed to clear database")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Database cleared - %d users deleted", deleted),
	})
}

func (h *AdminHandler) Referrals(c *gin.Context) {
	referrals, err := h.admin.Referrals(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get referrals")
		return
	}
	c.JSON(http.StatusOK, referrals)
}

func (h *AdminHandler) Analytics(c *gin.Context) {
	analytics, err := h.admin.Analytics(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}
