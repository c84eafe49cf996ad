package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/models"
)

func TestValidationCreateBumpsExample(t *testing.T) {
	f := newFixture(t)

	id := f.addExample(nil, boolp(true), false, nil)
	f.addValidation(id, f.alice, models.LabelCorrect, models.ModeUser)
	f.addValidation(id, f.bob, models.LabelIncorrect, models.ModeUser)

	e, err := f.examples.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, 2, e.TotalVerified)
	assert.False(t, e.Flagged)

	f.addValidation(id, f.bob, models.LabelFlagged, models.ModeUser)
	e, err = f.examples.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, 3, e.TotalVerified)
	assert.True(t, e.Flagged)
}

func TestValidationCountsForExample(t *testing.T) {
	f := newFixture(t)

	id := f.addExample(nil, boolp(true), false, nil)
	f.addValidation(id, f.alice, models.LabelCorrect, models.ModeUser)
	f.addValidation(id, f.alice, models.LabelCorrect, models.ModeOwner)
	f.addValidation(id, f.bob, models.LabelIncorrect, models.ModeUser)
	f.addValidation(id, f.bob, models.LabelFlagged, models.ModeUser)

	counts, err := f.validations.CountsForExample(id)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Correct)
	assert.Equal(t, 1, counts.Incorrect)
	assert.Equal(t, 1, counts.Flagged)
	assert.Equal(t, 1, counts.OwnerValidated)

	// No rows still yields zero counts, not an error.
	empty := f.addExample(nil, boolp(true), false, nil)
	counts, err = f.validations.CountsForExample(empty)
	require.NoError(t, err)
	assert.Zero(t, counts.Correct)
}
