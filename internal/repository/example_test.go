package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/models"
)

func ids(examples []*models.Example) []int64 {
	out := make([]int64, 0, len(examples))
	for _, e := range examples {
		out = append(out, e.ID)
	}
	return out
}

func TestExampleCreateAndGetByID(t *testing.T) {
	f := newFixture(t)

	id := f.addExample(int64p(f.alice), boolp(true), false, strp("easy"))
	require.NotZero(t, id)

	e, err := f.examples.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, f.cid, e.CID)
	require.NotNil(t, e.UID)
	assert.Equal(t, f.alice, *e.UID)
	require.NotNil(t, e.Tag)
	assert.Equal(t, "easy", *e.Tag)
	assert.Equal(t, "undecided", e.Split)
	assert.False(t, e.Retracted)
}

func TestGetRandomFreshPoolMembership(t *testing.T) {
	f := newFixture(t)

	fooling := f.addExample(nil, boolp(true), false, nil)
	f.addExample(nil, boolp(true), true, nil) // retracted
	nonFooling := f.addExample(nil, boolp(false), false, nil)

	got, err := f.examples.GetRandom(f.rid, false, 3, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{fooling}, ids(got))

	// validate_non_fooling widens the pool to non-fooling examples too.
	got, err = f.examples.GetRandom(f.rid, true, 3, 10, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{fooling, nonFooling}, ids(got))
}

func TestGetRandomExcludesOwnerValidated(t *testing.T) {
	f := newFixture(t)

	settled := f.addExample(nil, boolp(true), false, nil)
	f.addValidation(settled, f.alice, models.LabelCorrect, models.ModeOwner)

	open := f.addExample(nil, boolp(true), false, nil)
	f.addValidation(open, f.alice, models.LabelCorrect, models.ModeUser)

	got, err := f.examples.GetRandom(f.rid, false, 3, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{open}, ids(got))
}

func TestGetRandomThresholdSaturation(t *testing.T) {
	f := newFixture(t)

	done := f.addExample(nil, boolp(true), false, nil)
	for i := 0; i < 3; i++ {
		f.addValidation(done, f.alice, models.LabelCorrect, models.ModeUser)
	}

	// Two correct plus two incorrect: neither label has hit the threshold.
	open := f.addExample(nil, boolp(true), false, nil)
	for i := 0; i < 2; i++ {
		f.addValidation(open, f.alice, models.LabelCorrect, models.ModeUser)
		f.addValidation(open, f.bob, models.LabelIncorrect, models.ModeUser)
	}

	got, err := f.examples.GetRandom(f.rid, false, 3, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{open}, ids(got))
}

func TestGetRandomSkipsRequesterInvolvement(t *testing.T) {
	f := newFixture(t)

	mine := f.addExample(int64p(f.alice), boolp(true), false, nil)
	anon := f.addExample(nil, boolp(true), false, nil)
	judged := f.addExample(int64p(f.bob), boolp(true), false, nil)
	f.addValidation(judged, f.alice, models.LabelCorrect, models.ModeUser)

	got, err := f.examples.GetRandom(f.rid, false, 3, 10, int64p(f.alice), nil)
	require.NoError(t, err)
	// Alice never sees her own example or one she already judged; the
	// anonymous one is fair game.
	assert.Equal(t, []int64{anon}, ids(got))

	// Bob authored the judged example, so he never sees it either, even
	// though the validation on it is Alice's.
	got, err = f.examples.GetRandom(f.rid, false, 3, 10, int64p(f.bob), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{mine, anon}, ids(got))
}

func TestGetRandomOrdering(t *testing.T) {
	f := newFixture(t)

	a := f.addExample(int64p(f.alice), boolp(true), false, nil)
	for i := 0; i < 3; i++ {
		f.addValidation(a, f.alice, models.LabelCorrect, models.ModeUser)
	}
	b := f.addExample(int64p(f.alice), boolp(false), false, nil)
	c := f.addExample(int64p(f.alice), boolp(true), false, nil)
	f.addValidation(c, f.alice, models.LabelCorrect, models.ModeUser)

	got, err := f.examples.GetRandom(f.rid, true, 5, 10, int64p(f.bob), nil)
	require.NoError(t, err)
	// Model-fooling first, then fewest completed validations.
	assert.Equal(t, []int64{c, a, b}, ids(got))
}

func TestGetRandomTagFilter(t *testing.T) {
	f := newFixture(t)

	f.addExample(nil, boolp(true), false, strp("easy"))
	hard := f.addExample(nil, boolp(true), false, strp("hard"))
	f.addExample(nil, boolp(true), false, nil)

	got, err := f.examples.GetRandom(f.rid, false, 3, 10, nil, []string{"hard"})
	require.NoError(t, err)
	assert.Equal(t, []int64{hard}, ids(got))
}

func TestGetRandomLimit(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		f.addExample(nil, boolp(true), false, nil)
	}
	got, err := f.examples.GetRandom(f.rid, false, 3, 2, nil, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGetRandomFilteredFreshAdmission(t *testing.T) {
	f := newFixture(t)

	fresh := f.addExample(nil, boolp(true), false, nil)
	flagged := f.addExample(nil, boolp(true), false, nil)
	f.addValidation(flagged, f.alice, models.LabelFlagged, models.ModeUser)

	// Zero minimums admit never-validated examples alongside matching ones.
	got, err := f.examples.GetRandomFiltered(f.rid, 0, 1000, 0, 1000, false, 10, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{fresh, flagged}, ids(got))

	// A positive flag minimum drops the fresh branch entirely.
	got, err = f.examples.GetRandomFiltered(f.rid, 1, 1000, 0, 1000, false, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{flagged}, ids(got))
}

func TestGetRandomFilteredDisagreementBand(t *testing.T) {
	f := newFixture(t)

	// Two correct, one incorrect: the minority vote count is 1.
	contested := f.addExample(nil, boolp(true), false, nil)
	f.addValidation(contested, f.alice, models.LabelCorrect, models.ModeUser)
	f.addValidation(contested, f.bob, models.LabelCorrect, models.ModeUser)
	f.addValidation(contested, f.alice, models.LabelIncorrect, models.ModeUser)

	// Three incorrect, one correct: the minority flips to the correct side.
	rejected := f.addExample(nil, boolp(true), false, nil)
	f.addValidation(rejected, f.alice, models.LabelCorrect, models.ModeUser)
	for i := 0; i < 3; i++ {
		f.addValidation(rejected, f.bob, models.LabelIncorrect, models.ModeUser)
	}

	got, err := f.examples.GetRandomFiltered(f.rid, 0, 1000, 1, 1, false, 10, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{contested, rejected}, ids(got))

	got, err = f.examples.GetRandomFiltered(f.rid, 0, 1000, 2, 3, false, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetRandomFilteredOwnerValidatedExcluded(t *testing.T) {
	f := newFixture(t)

	settled := f.addExample(nil, boolp(true), false, nil)
	f.addValidation(settled, f.alice, models.LabelFlagged, models.ModeUser)
	f.addValidation(settled, f.bob, models.LabelCorrect, models.ModeOwner)

	got, err := f.examples.GetRandomFiltered(f.rid, 1, 1000, 0, 1000, false, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetByTaskSpansRounds(t *testing.T) {
	f := newFixture(t)

	first := f.addExample(nil, boolp(true), false, nil)

	// Second round of the same task with its own context.
	f.db.MustExec(`INSERT INTO rounds (tid, rid, secret) VALUES (1, 2, 'second-secret')`)
	f.db.MustExec(`INSERT INTO contexts (r_realid, context_json) VALUES (2, '{"context": "The dog barked."}')`)
	second := &models.Example{
		CID:          2,
		InputJSON:    `{"hypothesis": "A dog is barking."}`,
		OutputJSON:   "null",
		MetadataJSON: "{}",
		Split:        "undecided",
		GeneratedAt:  time.Now().UTC(),
	}
	require.NoError(t, f.examples.Create(second))

	got, err := f.examples.GetByTask(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{first, second.ID}, ids(got))

	got, err = f.examples.GetByTaskAndRound(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID}, ids(got))
}

func TestSetRetractedAndFlagged(t *testing.T) {
	f := newFixture(t)

	id := f.addExample(nil, boolp(true), false, nil)
	require.NoError(t, f.examples.SetRetracted(id, true))
	require.NoError(t, f.examples.SetFlagged(id, true))

	e, err := f.examples.GetByID(id)
	require.NoError(t, err)
	assert.True(t, e.Retracted)
	assert.True(t, e.Flagged)
}
