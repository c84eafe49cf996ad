package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContextGetByRound(t *testing.T) {
	f := newFixture(t)
	f.db.MustExec(`INSERT INTO contexts (r_realid, context_json) VALUES (1, '{"context": "The dog barked."}')`)

	contexts := NewContextRepository(f.db, zap.NewNop())

	got, err := contexts.GetByRound(1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	payloads := []string{got[0].ContextJSON, got[1].ContextJSON}
	assert.Contains(t, payloads, `{"context": "The cat sat on the mat."}`)
	assert.Contains(t, payloads, `{"context": "The dog barked."}`)

	got, err = contexts.GetByRound(42)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTaskGetByCode(t *testing.T) {
	f := newFixture(t)

	tasks := NewTaskRepository(f.db, zap.NewNop())

	task, err := tasks.GetByCode("nli")
	require.NoError(t, err)
	assert.Equal(t, int64(1), task.ID)
	assert.Equal(t, "NLI", task.Name)

	_, err = tasks.GetByCode("vqa")
	assert.Error(t, err)
}
