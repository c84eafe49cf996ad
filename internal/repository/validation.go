package repository

import (
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ValidationRepository interface {
	Create(v *models.Validation) error
	CountsForExample(eid int64) (*models.ValidationCounts, error)
}

type validationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewValidationRepository(db *sqlx.DB, logger *zap.Logger) ValidationRepository {
	return &validationRepository{db: db, logger: logger}
}

// Create records one judgment and bumps the example's completed-validation
// count in the same transaction.
func (r *validationRepository) Create(v *models.Validation) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := r.db.Rebind(`INSERT INTO validations (eid, uid, label, mode, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := tx.QueryRowx(insert, v.EID, v.UID, v.Label, v.Mode, v.MetadataJSON, v.CreatedAt).Scan(&v.ID); err != nil {
		return err
	}

	bump := r.db.Rebind(`UPDATE examples SET total_verified = total_verified + 1 WHERE id = ?`)
	if _, err := tx.Exec(bump, v.EID); err != nil {
		return err
	}

	if v.Label == models.LabelFlagged {
		flag := r.db.Rebind(`UPDATE examples SET flagged = ? WHERE id = ?`)
		if _, err := tx.Exec(flag, true, v.EID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *validationRepository) CountsForExample(eid int64) (*models.ValidationCounts, error) {
	var counts models.ValidationCounts
	query := r.db.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN label = 'correct' THEN 1 ELSE 0 END), 0) AS cnt_correct,
			COALESCE(SUM(CASE WHEN label = 'incorrect' THEN 1 ELSE 0 END), 0) AS cnt_incorrect,
			COALESCE(SUM(CASE WHEN label = 'flagged' THEN 1 ELSE 0 END), 0) AS cnt_flagged,
			COALESCE(SUM(CASE WHEN mode = 'owner' THEN 1 ELSE 0 END), 0) AS cnt_owner_validated
		FROM validations WHERE eid = ?`)
	if err := r.db.Get(&counts, query, eid); err != nil {
		return nil, err
	}
	return &counts, nil
}
