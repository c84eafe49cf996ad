package repository

import (
	"fmt"
	"strings"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// exampleColumns is the canonical select list; keep in sync with
// models.Example and the examples table.
const exampleColumns = `e.id, e.cid, e.uid, e.tag, e.input_json, e.output_json, e.metadata_json,
	e.model_endpoint_name, e.split, e.model_wrong, e.retracted, e.flagged,
	e.generated_datetime, e.time_elapsed, e.total_verified`

type ExampleRepository interface {
	Create(e *models.Example) error
	GetByID(id int64) (*models.Example, error)
	GetByTask(tid int64) ([]*models.Example, error)
	GetByTaskAndRound(tid, rid int64) ([]*models.Example, error)
	GetRandom(rid int64, validateNonFooling bool, numMatchingValidations, n int, myUID *int64, tags []string) ([]*models.Example, error)
	GetRandomFiltered(rid, minFlags, maxFlags, minDisagreements, maxDisagreements int64, validateNonFooling bool, n int, tags []string) ([]*models.Example, error)
	SetRetracted(id int64, retracted bool) error
	SetFlagged(id int64, flagged bool) error
}

type exampleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewExampleRepository(db *sqlx.DB, logger *zap.Logger) ExampleRepository {
	return &exampleRepository{db: db, logger: logger}
}

// Create inserts one example row. The insert is all-or-nothing; no retry is
// attempted here, retry policy belongs to the caller.
func (r *exampleRepository) Create(e *models.Example) error {
	query := r.db.Rebind(`INSERT INTO examples
		(cid, uid, tag, input_json, output_json, metadata_json, model_endpoint_name,
		 split, model_wrong, retracted, flagged, generated_datetime, time_elapsed, total_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	return r.db.QueryRowx(query,
		e.CID, e.UID, e.Tag, e.InputJSON, e.OutputJSON, e.MetadataJSON, e.ModelEndpointName,
		e.Split, e.ModelWrong, e.Retracted, e.Flagged, e.GeneratedAt, e.TimeElapsedMS, e.TotalVerified,
	).Scan(&e.ID)
}

func (r *exampleRepository) GetByID(id int64) (*models.Example, error) {
	var e models.Example
	query := r.db.Rebind(fmt.Sprintf(`SELECT %s FROM examples e WHERE e.id = ?`, exampleColumns))
	if err := r.db.Get(&e, query, id); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *exampleRepository) GetByTask(tid int64) ([]*models.Example, error) {
	var examples []*models.Example
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s FROM examples e
		JOIN contexts c ON e.cid = c.id
		JOIN rounds r ON c.r_realid = r.id
		WHERE r.tid = ?`, exampleColumns))
	if err := r.db.Select(&examples, query, tid); err != nil {
		return nil, err
	}
	return examples, nil
}

func (r *exampleRepository) GetByTaskAndRound(tid, rid int64) ([]*models.Example, error) {
	var examples []*models.Example
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s FROM examples e
		JOIN contexts c ON e.cid = c.id
		JOIN rounds r ON c.r_realid = r.id
		WHERE r.tid = ? AND r.rid = ?`, exampleColumns))
	if err := r.db.Select(&examples, query, tid, rid); err != nil {
		return nil, err
	}
	return examples, nil
}

// GetRandom samples up to n examples of a round that still need validation.
// The qualifying set is the union of two query shapes: examples with some
// validations but none of the per-label counts at the threshold yet, and
// examples with no validations at all. The aggregate thresholds cannot be
// expressed against rows with zero validation rows in one grouped query.
// Ordering prefers model-fooling examples, then fewer completed validations,
// then random.
func (r *exampleRepository) GetRandom(rid int64, validateNonFooling bool, numMatchingValidations, n int, myUID *int64, tags []string) ([]*models.Example, error) {
	where, baseArgs := samplingPool(rid, validateNonFooling, myUID, tags)

	partial := fmt.Sprintf(`
		SELECT %s FROM examples e
		JOIN contexts c ON e.cid = c.id
		JOIN validations v ON v.eid = e.id
		WHERE %s
		GROUP BY e.id
		HAVING SUM(CASE WHEN v.label = 'correct' THEN 1 ELSE 0 END) < ?
		   AND SUM(CASE WHEN v.label = 'flagged' THEN 1 ELSE 0 END) < ?
		   AND SUM(CASE WHEN v.label = 'incorrect' THEN 1 ELSE 0 END) < ?
		   AND SUM(CASE WHEN v.mode = 'owner' THEN 1 ELSE 0 END) = 0`, exampleColumns, where)
	args := append(append([]interface{}{}, baseArgs...),
		numMatchingValidations, numMatchingValidations, numMatchingValidations)

	if myUID != nil {
		partial += `
		   AND SUM(CASE WHEN v.uid = ? THEN 1 ELSE 0 END) = 0`
		args = append(args, *myUID)
	}

	fresh := fmt.Sprintf(`
		SELECT %s FROM examples e
		JOIN contexts c ON e.cid = c.id
		WHERE %s
		  AND NOT EXISTS (SELECT 1 FROM validations v WHERE v.eid = e.id)`, exampleColumns, where)
	args = append(args, baseArgs...)

	query := fmt.Sprintf(`
		SELECT * FROM (%s UNION %s) u
		ORDER BY (u.model_wrong IS NOT TRUE), u.total_verified ASC, RANDOM()
		LIMIT ?`, partial, fresh)
	args = append(args, n)

	return r.sample(query, args)
}

// GetRandomFiltered is GetRandom with a flagged-count band and a disagreement
// band on the minority vote count. A request with both minimums at zero also
// admits never-validated examples.
func (r *exampleRepository) GetRandomFiltered(rid, minFlags, maxFlags, minDisagreements, maxDisagreements int64, validateNonFooling bool, n int, tags []string) ([]*models.Example, error) {
	where, baseArgs := samplingPool(rid, validateNonFooling, nil, tags)

	query := fmt.Sprintf(`
		SELECT %s FROM examples e
		JOIN contexts c ON e.cid = c.id
		JOIN validations v ON v.eid = e.id
		WHERE %s
		GROUP BY e.id
		HAVING SUM(CASE WHEN v.mode = 'owner' THEN 1 ELSE 0 END) = 0
		   AND SUM(CASE WHEN v.label = 'flagged' THEN 1 ELSE 0 END) >= ?
		   AND SUM(CASE WHEN v.label = 'flagged' THEN 1 ELSE 0 END) <= ?
		   AND ((SUM(CASE WHEN v.label = 'incorrect' THEN 1 ELSE 0 END) > SUM(CASE WHEN v.label = 'correct' THEN 1 ELSE 0 END)
		         AND SUM(CASE WHEN v.label = 'correct' THEN 1 ELSE 0 END) >= ?
		         AND SUM(CASE WHEN v.label = 'correct' THEN 1 ELSE 0 END) <= ?)
		     OR (SUM(CASE WHEN v.label = 'correct' THEN 1 ELSE 0 END) >= SUM(CASE WHEN v.label = 'incorrect' THEN 1 ELSE 0 END)
		         AND SUM(CASE WHEN v.label = 'incorrect' THEN 1 ELSE 0 END) >= ?
		         AND SUM(CASE WHEN v.label = 'incorrect' THEN 1 ELSE 0 END) <= ?))`, exampleColumns, where)
	args := append(append([]interface{}{}, baseArgs...),
		minFlags, maxFlags, minDisagreements, maxDisagreements, minDisagreements, maxDisagreements)

	// Zero minimums mean the caller also wants brand-new items.
	if minFlags == 0 && minDisagreements == 0 {
		query += fmt.Sprintf(`
		UNION
		SELECT %s FROM examples e
		JOIN contexts c ON e.cid = c.id
		WHERE %s
		  AND NOT EXISTS (SELECT 1 FROM validations v WHERE v.eid = e.id)`, exampleColumns, where)
		args = append(args, baseArgs...)
	}

	query = fmt.Sprintf(`
		SELECT * FROM (%s) u
		ORDER BY (u.model_wrong IS NOT TRUE), u.total_verified ASC, RANDOM()
		LIMIT ?`, query)
	args = append(args, n)

	return r.sample(query, args)
}

func (r *exampleRepository) SetRetracted(id int64, retracted bool) error {
	_, err := r.db.Exec(r.db.Rebind(`UPDATE examples SET retracted = ? WHERE id = ?`), retracted, id)
	return err
}

func (r *exampleRepository) SetFlagged(id int64, flagged bool) error {
	_, err := r.db.Exec(r.db.Rebind(`UPDATE examples SET flagged = ? WHERE id = ?`), flagged, id)
	return err
}

// samplingPool builds the WHERE clause shared by both sampling modes:
// round scope, not retracted, optional tag filter, model-fooling examples
// only unless validateNonFooling, and never the requester's own examples.
func samplingPool(rid int64, validateNonFooling bool, myUID *int64, tags []string) (string, []interface{}) {
	clauses := []string{"c.r_realid = ?", "e.retracted = ?"}
	args := []interface{}{rid, false}

	if len(tags) > 0 {
		clauses = append(clauses, "e.tag IN (?)")
		args = append(args, tags)
	}
	if !validateNonFooling {
		clauses = append(clauses, "e.model_wrong = ?")
		args = append(args, true)
	}
	if myUID != nil {
		clauses = append(clauses, "(e.uid IS NULL OR e.uid <> ?)")
		args = append(args, *myUID)
	}
	return strings.Join(clauses, " AND "), args
}

func (r *exampleRepository) sample(query string, args []interface{}) ([]*models.Example, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	var examples []*models.Example
	if err := r.db.Select(&examples, r.db.Rebind(query), args...); err != nil {
		r.logger.Error("Sampling query failed", zap.Error(err))
		return nil, err
	}
	return examples, nil
}
