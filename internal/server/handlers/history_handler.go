package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/service/history"
)

const csvContentType = "text/csv; charset=utf-8"

// History handles GET /api/history.
func (h *Handler) History(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, "invalid history query", err)
		return
	}
	records, err := h.history.History(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "unable to load history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// ExportLatest handles GET /api/export/latest.
func (h *Handler) ExportLatest(c *gin.Context) {
	name, records, err := h.history.LatestExport(c.Request.Context(), h.today())
	if err != nil {
		h.fail(c, "unable to export latest snapshot", err)
		return
	}
	h.sendCSV(c, name, records)
}

// ExportRange handles GET /api/export.
func (h *Handler) ExportRange(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, "invalid export query", err)
		return
	}
	name, records, err := h.history.RangeExport(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "unable to export history", err)
		return
	}
	h.sendCSV(c, name, records)
}

func (h *Handler) sendCSV(c *gin.Context, name string, records []models.HistoryRecord) {
	var buf bytes.Buffer
	if err := history.WriteCSV(&buf, records); err != nil {
		h.fail(c, "unable to render csv", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, csvContentType, buf.Bytes())
}

func parseQuery(c *gin.Context) (history.Query, error) {
	start, err := models.ParseDate(c.Query("start"))
	if err != nil {
		return history.Query{}, fmt.Errorf("start: %w", err)
	}
	end, err := models.ParseDate(c.Query("end"))
	if err != nil {
		return history.Query{}, fmt.Errorf("end: %w", err)
	}
	return history.Query{Breed: c.Query("breed"), Start: start, End: end}, nil
}
