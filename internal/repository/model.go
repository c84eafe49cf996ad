package repository

import (
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ModelRepository interface {
	GetByEndpointName(endpointName string) (*models.Model, error)
}

type modelRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewModelRepository(db *sqlx.DB, logger *zap.Logger) ModelRepository {
	return &modelRepository{db: db, logger: logger}
}

func (r *modelRepository) GetByEndpointName(endpointName string) (*models.Model, error) {
	var m models.Model
	query := r.db.Rebind(`SELECT id, tid, name, endpoint_name, secret FROM models WHERE endpoint_name = ?`)
	if err := r.db.Get(&m, query, endpointName); err != nil {
		return nil, err
	}
	return &m, nil
}
