package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TaskHandler serves task metadata. Clients need the annotation schema to
// render input forms, so the config is returned inline.
type TaskHandler struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func NewTaskHandler(tasks repository.TaskRepository, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// Get returns one task addressed by numeric id or by task code.
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	raw := c.Param("id")

	var task *models.Task
	var err error
	if id, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
		task, err = h.tasks.GetByID(id)
	} else {
		task, err = h.tasks.GetByCode(raw)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                task.ID,
		"name":              task.Name,
		"task_code":         task.TaskCode,
		"annotation_config": json.RawMessage(task.AnnotationConfigJSON),
	})
}
