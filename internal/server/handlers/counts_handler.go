package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/domain/tally"
	"github.com/mamadbah2/flocktracker/internal/service/counts"
)

type setRequest struct {
	Value *int `json:"value"`
}

type stepRequest struct {
	Group counts.Group `json:"group" binding:"required"`
	Field string       `json:"field" binding:"required"`
	Delta int          `json:"delta" binding:"required"`
}

// Counts returns the board with its totals.
func (h *Handler) Counts(c *gin.Context) {
	model, version := h.board.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"version": version,
		"counts":  model,
		"summary": tally.Summarize(model, h.taxonomy),
	})
}

// SetBreeders handles PUT /api/counts/:breed/breeders/:sex.
func (h *Handler) SetBreeders(c *gin.Context) {
	h.set(c, counts.GroupBreeders, c.Param("sex"))
}

// SetJuvenile handles PUT /api/counts/:breed/juvenile/:sex.
func (h *Handler) SetJuvenile(c *gin.Context) {
	h.set(c, counts.GroupJuvenile, c.Param("sex"))
}

// SetStage handles PUT /api/counts/:breed/stages/:stage.
func (h *Handler) SetStage(c *gin.Context) {
	h.set(c, counts.GroupStages, c.Param("stage"))
}

func (h *Handler) set(c *gin.Context, group counts.Group, name string) {
	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Value == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "value is required"})
		return
	}

	f := counts.Field{Breed: c.Param("breed"), Group: group, Name: name}
	value, err := h.board.Set(f, *req.Value)
	if err != nil {
		h.fail(c, "unable to update count", err)
		return
	}
	h.respondBreed(c, f, value)
}

// Step handles POST /api/counts/:breed/step.
func (h *Handler) Step(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	f := counts.Field{Breed: c.Param("breed"), Group: req.Group, Name: req.Field}
	value, err := h.board.Step(f, req.Delta)
	if err != nil {
		h.fail(c, "unable to step count", err)
		return
	}
	h.respondBreed(c, f, value)
}

// Reset handles DELETE /api/counts.
func (h *Handler) Reset(c *gin.Context) {
	h.board.Reset()
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondBreed(c *gin.Context, f counts.Field, value models.Count) {
	bc, err := h.board.Breed(f.Breed)
	if err != nil {
		h.fail(c, "unable to read breed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"field":   f,
		"value":   value,
		"breed":   bc,
		"total":   tally.BreedTotal(bc),
		"version": h.board.Version(),
	})
}
