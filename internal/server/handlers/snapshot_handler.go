package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SaveSnapshot handles POST /api/snapshots.
func (h *Handler) SaveSnapshot(c *gin.Context) {
	res, err := h.saver.Flush(c.Request.Context())
	if err != nil {
		h.fail(c, "unable to save snapshot", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// LatestSnapshot handles GET /api/snapshots/latest.
func (h *Handler) LatestSnapshot(c *gin.Context) {
	date, records, err := h.history.LatestSnapshot(c.Request.Context())
	if err != nil {
		h.fail(c, "unable to load latest snapshot", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "records": records})
}

// ClearSnapshots handles DELETE /api/snapshots.
func (h *Handler) ClearSnapshots(c *gin.Context) {
	n, err := h.history.Clear(c.Request.Context())
	if err != nil {
		h.fail(c, "unable to clear snapshots", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
