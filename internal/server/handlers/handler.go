package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
	"github.com/mamadbah2/flocktracker/internal/service/counts"
	"github.com/mamadbah2/flocktracker/internal/service/history"
	"github.com/mamadbah2/flocktracker/internal/service/snapshot"
)

// Saver writes the board now.
type Saver interface {
	Flush(ctx context.Context) (snapshot.SaveResult, error)
}

// HistoryReader serves stored snapshots.
type HistoryReader interface {
	History(ctx context.Context, q history.Query) ([]models.HistoryRecord, error)
	LatestSnapshot(ctx context.Context) (models.Date, []models.HistoryRecord, error)
	LatestExport(ctx context.Context, today models.Date) (string, []models.HistoryRecord, error)
	RangeExport(ctx context.Context, q history.Query) (string, []models.HistoryRecord, error)
	Clear(ctx context.Context) (int, error)
}

// Handler serves the tracker API.
type Handler struct {
	taxonomy *models.Taxonomy
	board    *counts.Board
	saver    Saver
	history  HistoryReader
	today    func() models.Date
	logger   *zap.Logger
}

// NewHandler constructs the HTTP handler adapter. today names the current
// calendar date for exports of an empty store.
func NewHandler(taxonomy *models.Taxonomy, board *counts.Board, saver Saver, hist HistoryReader, today func() models.Date, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		taxonomy: taxonomy,
		board:    board,
		saver:    saver,
		history:  hist,
		today:    today,
		logger:   logger,
	}
}

// Taxonomy lists categories and growth stages.
func (h *Handler) Taxonomy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.taxonomy.Categories(),
		"stages":     h.taxonomy.Stages(),
	})
}

// statusFor maps error classes to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrStorageFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrExportFailure):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	h.logger.Warn(msg, zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}
