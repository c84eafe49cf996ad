package handler

import (
	"net/http"
	"strconv"

	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExampleHandler handles example submission and retrieval.
type ExampleHandler struct {
	examples *service.ExampleService
	logger   *zap.Logger
}

func NewExampleHandler(examples *service.ExampleService, logger *zap.Logger) *ExampleHandler {
	return &ExampleHandler{examples: examples, logger: logger}
}

// Submit admits a new example.
// POST /api/examples
//
// Any rejection produces the same opaque response; which check failed is
// visible in logs only.
func (h *ExampleHandler) Submit(c *gin.Context) {
	var req struct {
		TaskID            int64                  `json:"task_id" binding:"required"`
		RoundID           int64                  `json:"round_id" binding:"required"`
		UserID            string                 `json:"user_id" binding:"required"`
		ContextID         int64                  `json:"context_id" binding:"required"`
		Input             map[string]interface{} `json:"input" binding:"required"`
		Output            map[string]interface{} `json:"output"`
		ModelSignature    *string                `json:"model_signature"`
		Metadata          map[string]interface{} `json:"metadata"`
		ModelWrong        *bool                  `json:"model_wrong"`
		Tag               *string                `json:"tag"`
		ModelEndpointName *string                `json:"model_endpoint_name"`
		TimeElapsed       *int64                 `json:"time_elapsed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Metadata == nil {
		req.Metadata = map[string]interface{}{}
	}

	example, err := h.examples.Submit(service.SubmitRequest{
		TaskID:            req.TaskID,
		RoundID:           req.RoundID,
		UID:               req.UserID,
		ContextID:         req.ContextID,
		Input:             req.Input,
		Output:            req.Output,
		Metadata:          req.Metadata,
		ModelSignature:    req.ModelSignature,
		ModelWrong:        req.ModelWrong,
		Tag:               req.Tag,
		ModelEndpointName: req.ModelEndpointName,
		TimeElapsedMS:     req.TimeElapsed,
	})
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "example rejected"})
		return
	}

	c.JSON(http.StatusCreated, example)
}

// GetRandom returns examples of a round needing validation.
// GET /api/examples/round/:rid/random
func (h *ExampleHandler) GetRandom(c *gin.Context) {
	rid, err := strconv.ParseInt(c.Param("rid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round ID"})
		return
	}

	req := service.RetrievalRequest{
		RoundID:                rid,
		ValidateNonFooling:     c.Query("validate_non_fooling") == "true",
		NumMatchingValidations: intQuery(c, "num_matching_validations", 3),
		Count:                  intQuery(c, "count", 1),
		Tags:                   c.QueryArray("tag"),
	}
	if uid, ok := c.Get("user_id"); ok {
		id := uid.(int64)
		req.UserID = &id
	}

	examples := h.examples.GetRandom(req)
	c.JSON(http.StatusOK, gin.H{"examples": examples, "count": len(examples)})
}

// GetRandomFiltered returns examples whose flag and disagreement counts fall
// in the requested bands.
// GET /api/examples/round/:rid/random/filtered
func (h *ExampleHandler) GetRandomFiltered(c *gin.Context) {
	rid, err := strconv.ParseInt(c.Param("rid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round ID"})
		return
	}

	req := service.FilteredRetrievalRequest{
		RetrievalRequest: service.RetrievalRequest{
			RoundID:            rid,
			ValidateNonFooling: c.Query("validate_non_fooling") == "true",
			Count:              intQuery(c, "count", 1),
			Tags:               c.QueryArray("tag"),
		},
		MinFlags:         int64Query(c, "min_flags", 0),
		MaxFlags:         int64Query(c, "max_flags", 1_000_000),
		MinDisagreements: int64Query(c, "min_disagreements", 0),
		MaxDisagreements: int64Query(c, "max_disagreements", 1_000_000),
	}

	examples := h.examples.GetRandomFiltered(req)
	c.JSON(http.StatusOK, gin.H{"examples": examples, "count": len(examples)})
}

// ListByTask returns every example collected under a task.
// GET /api/examples/task/:tid
func (h *ExampleHandler) ListByTask(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	examples, err := h.examples.ListByTask(tid)
	if err != nil {
		h.logger.Error("Failed to list examples", zap.Int64("tid", tid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list examples"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"examples": examples, "count": len(examples)})
}

// Contexts returns the prompts of a round for annotators to work against.
// GET /api/contexts/round/:rid
func (h *ExampleHandler) Contexts(c *gin.Context) {
	rid, err := strconv.ParseInt(c.Param("rid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round ID"})
		return
	}

	contexts, err := h.examples.RoundContexts(rid)
	if err != nil {
		h.logger.Error("Failed to list contexts", zap.Int64("rid", rid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contexts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contexts": contexts, "count": len(contexts)})
}

// Export returns a round's examples with pseudonymous submitter ids.
// GET /api/examples/task/:tid/round/:rid/export
func (h *ExampleHandler) Export(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}
	rid, err := strconv.ParseInt(c.Param("rid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round ID"})
		return
	}

	entries, err := h.examples.Export(tid, rid)
	if err != nil {
		h.logger.Error("Failed to export examples", zap.Int64("tid", tid), zap.Int64("rid", rid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export examples"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"examples": entries, "count": len(entries)})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func int64Query(c *gin.Context, name string, fallback int64) int64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
