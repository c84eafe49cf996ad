package repository

import (
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ContextRepository interface {
	GetByID(id int64) (*models.Context, error)
	GetByRound(rid int64) ([]*models.Context, error)
}

type contextRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewContextRepository(db *sqlx.DB, logger *zap.Logger) ContextRepository {
	return &contextRepository{db: db, logger: logger}
}

func (r *contextRepository) GetByID(id int64) (*models.Context, error) {
	var c models.Context
	query := r.db.Rebind(`SELECT id, r_realid, context_json FROM contexts WHERE id = ?`)
	if err := r.db.Get(&c, query, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contextRepository) GetByRound(rid int64) ([]*models.Context, error) {
	var contexts []*models.Context
	query := r.db.Rebind(`SELECT id, r_realid, context_json FROM contexts WHERE r_realid = ?`)
	if err := r.db.Select(&contexts, query, rid); err != nil {
		return nil, err
	}
	return contexts, nil
}
