package repository

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"backend/internal/models"
)

// testSchema mirrors migrations/000001_init.up.sql in SQLite dialect. The
// sampling queries are written to run on both engines.
const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	task_code TEXT NOT NULL UNIQUE,
	annotation_config_json TEXT NOT NULL
);
CREATE TABLE rounds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tid INTEGER NOT NULL,
	rid INTEGER NOT NULL,
	secret TEXT NOT NULL
);
CREATE TABLE contexts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	r_realid INTEGER NOT NULL,
	context_json TEXT NOT NULL
);
CREATE TABLE models (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tid INTEGER NOT NULL,
	name TEXT NOT NULL,
	endpoint_name TEXT NOT NULL UNIQUE,
	secret TEXT NOT NULL
);
CREATE TABLE examples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cid INTEGER NOT NULL,
	uid INTEGER,
	tag TEXT,
	input_json TEXT NOT NULL,
	output_json TEXT NOT NULL,
	metadata_json TEXT NOT NULL,
	model_endpoint_name TEXT,
	split TEXT NOT NULL DEFAULT 'undecided',
	model_wrong BOOLEAN,
	retracted BOOLEAN NOT NULL DEFAULT 0,
	flagged BOOLEAN NOT NULL DEFAULT 0,
	generated_datetime TIMESTAMP NOT NULL,
	time_elapsed INTEGER,
	total_verified INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE validations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	eid INTEGER NOT NULL,
	uid INTEGER NOT NULL,
	label TEXT NOT NULL,
	mode TEXT NOT NULL DEFAULT 'user',
	metadata_json TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One in-memory database per test; a second pool connection would see
	// an empty database.
	db.SetMaxOpenConns(1)
	db.MustExec(testSchema)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fixture seeds one task/round/context plus two users and exposes the
// repositories under test.
type fixture struct {
	t           *testing.T
	db          *sqlx.DB
	examples    ExampleRepository
	validations ValidationRepository
	rid         int64
	cid         int64
	alice       int64
	bob         int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	logger := zap.NewNop()

	db.MustExec(`INSERT INTO tasks (name, task_code, annotation_config_json) VALUES ('NLI', 'nli', '{}')`)
	db.MustExec(`INSERT INTO rounds (tid, rid, secret) VALUES (1, 1, 'round-secret')`)
	db.MustExec(`INSERT INTO contexts (r_realid, context_json) VALUES (1, '{"context": "The cat sat on the mat."}')`)
	db.MustExec(`INSERT INTO users (username, password_hash) VALUES ('alice', 'x'), ('bob', 'x')`)

	return &fixture{
		t:           t,
		db:          db,
		examples:    NewExampleRepository(db, logger),
		validations: NewValidationRepository(db, logger),
		rid:         1,
		cid:         1,
		alice:       1,
		bob:         2,
	}
}

func (f *fixture) addExample(uid *int64, modelWrong *bool, retracted bool, tag *string) int64 {
	f.t.Helper()
	e := &models.Example{
		CID:          f.cid,
		UID:          uid,
		Tag:          tag,
		InputJSON:    `{"hypothesis": "A cat is sitting."}`,
		OutputJSON:   "null",
		MetadataJSON: "{}",
		Split:        "undecided",
		ModelWrong:   modelWrong,
		Retracted:    retracted,
		GeneratedAt:  time.Now().UTC(),
	}
	require.NoError(f.t, f.examples.Create(e))
	return e.ID
}

func (f *fixture) addValidation(eid, uid int64, label, mode string) {
	f.t.Helper()
	require.NoError(f.t, f.validations.Create(&models.Validation{
		EID:          eid,
		UID:          uid,
		Label:        label,
		Mode:         mode,
		MetadataJSON: "{}",
		CreatedAt:    time.Now().UTC(),
	}))
}

func boolp(b bool) *bool { return &b }

func int64p(v int64) *int64 { return &v }

func strp(s string) *string { return &s }
