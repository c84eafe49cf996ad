package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/repository"
)

type recordingNotifier struct {
	flagged chan int64
}

func (n *recordingNotifier) NotifyFlaggedExample(eid int64, uid int64) {
	n.flagged <- eid
}

func TestValidateRecordsJudgment(t *testing.T) {
	f := newSvcFixture(t)
	e, err := f.svc.Submit(nliRequest())
	require.NoError(t, err)

	svc := NewValidationService(repository.NewValidationRepository(f.db, zap.NewNop()), nil, zap.NewNop())

	v, err := svc.Validate(e.ID, 1, models.LabelCorrect, models.ModeUser, nil)
	require.NoError(t, err)
	assert.NotZero(t, v.ID)

	counts, err := svc.Counts(e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Correct)

	_, err = svc.Validate(e.ID, 1, "maybe", models.ModeUser, nil)
	assert.Error(t, err)
	_, err = svc.Validate(e.ID, 1, models.LabelCorrect, "admin", nil)
	assert.Error(t, err)
}

func TestValidateNotifiesOnFlag(t *testing.T) {
	f := newSvcFixture(t)
	e, err := f.svc.Submit(nliRequest())
	require.NoError(t, err)

	notifier := &recordingNotifier{flagged: make(chan int64, 1)}
	svc := NewValidationService(repository.NewValidationRepository(f.db, zap.NewNop()), notifier, zap.NewNop())

	_, err = svc.Validate(e.ID, 1, models.LabelFlagged, models.ModeUser, nil)
	require.NoError(t, err)

	select {
	case eid := <-notifier.flagged:
		assert.Equal(t, e.ID, eid)
	case <-time.After(time.Second):
		t.Fatal("flag notification never arrived")
	}
}
