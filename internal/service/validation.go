package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/repository"
)

// Notifier delivers out-of-band alerts about examples. A nil Notifier
// disables alerting.
type Notifier interface {
	NotifyFlaggedExample(eid int64, uid int64)
}

// ValidationService records judgments on examples. Duplicate-validation is
// prevented here and by the retrieval predicates, not by any reservation at
// retrieval time; two validators may be shown the same example concurrently.
type ValidationService struct {
	validations repository.ValidationRepository
	notifier    Notifier
	logger      *zap.Logger
}

func NewValidationService(validations repository.ValidationRepository, notifier Notifier, logger *zap.Logger) *ValidationService {
	return &ValidationService{validations: validations, notifier: notifier, logger: logger}
}

func (s *ValidationService) Validate(eid, uid int64, label, mode string, metadata map[string]interface{}) (*models.Validation, error) {
	switch label {
	case models.LabelCorrect, models.LabelIncorrect, models.LabelFlagged:
	default:
		return nil, fmt.Errorf("invalid validation label %q", label)
	}
	switch mode {
	case models.ModeUser, models.ModeOwner:
	default:
		return nil, fmt.Errorf("invalid validation mode %q", mode)
	}

	v := &models.Validation{
		EID:          eid,
		UID:          uid,
		Label:        label,
		Mode:         mode,
		MetadataJSON: mustJSON(metadata),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.validations.Create(v); err != nil {
		s.logger.Error("Failed to record validation", zap.Int64("eid", eid), zap.Error(err))
		return nil, err
	}

	if label == models.LabelFlagged && s.notifier != nil {
		// Alerting must never block or fail the validation write.
		go s.notifier.NotifyFlaggedExample(eid, uid)
	}

	s.logger.Info("Recorded validation",
		zap.Int64("eid", eid), zap.Int64("uid", uid), zap.String("label", label))
	return v, nil
}

func (s *ValidationService) Counts(eid int64) (*models.ValidationCounts, error) {
	return s.validations.CountsForExample(eid)
}
