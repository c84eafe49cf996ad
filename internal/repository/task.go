package repository

import (
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type TaskRepository interface {
	GetByID(id int64) (*models.Task, error)
	GetByCode(code string) (*models.Task, error)
}

type taskRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewTaskRepository(db *sqlx.DB, logger *zap.Logger) TaskRepository {
	return &taskRepository{db: db, logger: logger}
}

func (r *taskRepository) GetByID(id int64) (*models.Task, error) {
	var t models.Task
	query := r.db.Rebind(`SELECT id, name, task_code, annotation_config_json FROM tasks WHERE id = ?`)
	if err := r.db.Get(&t, query, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taskRepository) GetByCode(code string) (*models.Task, error) {
	var t models.Task
	query := r.db.Rebind(`SELECT id, name, task_code, annotation_config_json FROM tasks WHERE task_code = ?`)
	if err := r.db.Get(&t, query, code); err != nil {
		return nil, err
	}
	return &t, nil
}
