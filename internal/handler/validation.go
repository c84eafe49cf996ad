package handler

import (
	"net/http"
	"strconv"

	"backend/internal/models"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ValidationHandler records judgments on examples.
type ValidationHandler struct {
	validations *service.ValidationService
	logger      *zap.Logger
}

func NewValidationHandler(validations *service.ValidationService, logger *zap.Logger) *ValidationHandler {
	return &ValidationHandler{validations: validations, logger: logger}
}

// Validate records one judgment by the authenticated user.
// POST /api/examples/:id/validate
func (h *ValidationHandler) Validate(c *gin.Context) {
	eid, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid example ID"})
		return
	}

	var req struct {
		Label    string                 `json:"label" binding:"required"`
		Mode     string                 `json:"mode"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mode == "" {
		req.Mode = models.ModeUser
	}

	uid := c.MustGet("user_id").(int64)
	v, err := h.validations.Validate(eid, uid, req.Label, req.Mode, req.Metadata)
	if err != nil {
		h.logger.Error("Failed to validate example", zap.Int64("eid", eid), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to record validation"})
		return
	}

	c.JSON(http.StatusCreated, v)
}

// Counts returns the per-label validation counts of an example.
// GET /api/examples/:id/validations
func (h *ValidationHandler) Counts(c *gin.Context) {
	eid, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid example ID"})
		return
	}

	counts, err := h.validations.Counts(eid)
	if err != nil {
		h.logger.Error("Failed to fetch validation counts", zap.Int64("eid", eid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch validation counts"})
		return
	}

	c.JSON(http.StatusOK, counts)
}
