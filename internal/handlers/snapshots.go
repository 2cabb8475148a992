package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/services"
)

const dateLayout = "2006-01-02"

type SnapshotHandler struct {
	snapshots *services.SnapshotService
	logger    *logrus.Logger
}

func NewSnapshotHandler(snapshots *services.SnapshotService, logger *logrus.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		logger:    logger,
	}
}

// History handles GET /api/admin/snapshots?limit=&from=&to=
func (h *SnapshotHandler) History(c *gin.Context) {
	var q services.SnapshotQuery

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		q.Limit = limit
	}

	var ok bool
	if q.From, ok = parseTimeParam(c.Query("from"), false); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from parameter"})
		return
	}
	if q.To, ok = parseTimeParam(c.Query("to"), true); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to parameter"})
		return
	}

	snapshots, err := h.snapshots.History(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get snapshots")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

func (h *SnapshotHandler) Latest(c *gin.Context) {
	snapshot, err := h.snapshots.Latest(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to get snapshot")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// parseTimeParam accepts RFC 3339 or a bare UTC date. A bare date used as
// the end of a range covers the whole day.
func parseTimeParam(raw string, endOfDay bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
