package repository

import (
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type RoundRepository interface {
	GetByID(id int64) (*models.Round, error)
	GetByTaskAndOrdinal(tid, rid int64) (*models.Round, error)
}

type roundRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRoundRepository(db *sqlx.DB, logger *zap.Logger) RoundRepository {
	return &roundRepository{db: db, logger: logger}
}

func (r *roundRepository) GetByID(id int64) (*models.Round, error) {
	var round models.Round
	query := r.db.Rebind(`SELECT id, tid, rid, secret FROM rounds WHERE id = ?`)
	if err := r.db.Get(&round, query, id); err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *roundRepository) GetByTaskAndOrdinal(tid, rid int64) (*models.Round, error) {
	var round models.Round
	query := r.db.Rebind(`SELECT id, tid, rid, secret FROM rounds WHERE tid = ? AND rid = ?`)
	if err := r.db.Get(&round, query, tid, rid); err != nil {
		return nil, err
	}
	return &round, nil
}
