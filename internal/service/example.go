package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/schema"
	"backend/internal/signature"
)

// hostedEndpointPrefix marks self-hosted model-serving endpoints, which use
// the delegated signature scheme.
const hostedEndpointPrefix = "ts"

// SubmitRequest carries one example submission.
type SubmitRequest struct {
	TaskID            int64
	RoundID           int64
	UID               string
	ContextID         int64
	Input             map[string]interface{}
	Output            map[string]interface{}
	Metadata          map[string]interface{}
	ModelSignature    *string
	ModelWrong        *bool
	Tag               *string
	ModelEndpointName *string
	TimeElapsedMS     *int64
}

// RetrievalRequest selects examples needing validation from one round.
type RetrievalRequest struct {
	RoundID                int64
	ValidateNonFooling     bool
	NumMatchingValidations int
	Count                  int
	UserID                 *int64
	Tags                   []string
}

// FilteredRetrievalRequest adds the flag and disagreement bands.
type FilteredRetrievalRequest struct {
	RetrievalRequest
	MinFlags         int64
	MaxFlags         int64
	MinDisagreements int64
	MaxDisagreements int64
}

// ExampleService is the example admission and retrieval engine.
type ExampleService struct {
	examples  repository.ExampleRepository
	contexts  repository.ContextRepository
	rounds    repository.RoundRepository
	tasks     repository.TaskRepository
	endpoints repository.ModelRepository
	users     repository.UserRepository
	cache     *cache.Cache
	logger    *zap.Logger
}

func NewExampleService(
	examples repository.ExampleRepository,
	contexts repository.ContextRepository,
	rounds repository.RoundRepository,
	tasks repository.TaskRepository,
	endpoints repository.ModelRepository,
	users repository.UserRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ExampleService {
	return &ExampleService{
		examples:  examples,
		contexts:  contexts,
		rounds:    rounds,
		tasks:     tasks,
		endpoints: endpoints,
		users:     users,
		cache:     cache.New(cacheTTL, 2*cacheTTL),
		logger:    logger,
	}
}

// Submit validates, authenticates and persists one example. It rejects on the
// first failed check with the matching error kind; nothing is written unless
// every check passes. Full diagnostics go to the log, never to the caller.
func (s *ExampleService) Submit(req SubmitRequest) (*models.Example, error) {
	if req.UID == models.AnonymousUID {
		if _, ok := req.Metadata["annotator_id"]; !ok {
			s.logger.Error("Annotator id not specified but received crowd-worker example")
			return nil, ErrAuthorship
		}
	}

	c, err := s.contexts.GetByID(req.ContextID)
	if err != nil {
		s.logger.Error("Failed to fetch context", zap.Int64("cid", req.ContextID), zap.Error(err))
		return nil, ErrContextMismatch
	}
	round, err := s.round(c.RID)
	if err != nil {
		s.logger.Error("Failed to fetch round", zap.Int64("r_realid", c.RID), zap.Error(err))
		return nil, ErrContextMismatch
	}
	task, err := s.task(round.TID)
	if err != nil {
		s.logger.Error("Failed to fetch task", zap.Int64("tid", round.TID), zap.Error(err))
		return nil, ErrContextMismatch
	}
	if req.TaskID != task.ID || req.RoundID != round.RID {
		s.logger.Error("Task or round id does not match context",
			zap.Int64("declared_tid", req.TaskID), zap.Int64("context_tid", task.ID),
			zap.Int64("declared_rid", req.RoundID), zap.Int64("context_rid", round.RID))
		return nil, ErrContextMismatch
	}

	cfg, err := schema.ParseAnnotationConfig(task.AnnotationConfigJSON)
	if err != nil {
		s.logger.Error("Failed to parse annotation config", zap.Int64("tid", task.ID), zap.Error(err))
		return nil, ErrSchemaValidation
	}
	taskIO := schema.NewTaskIO(task.TaskCode, cfg)

	contextFields := make(map[string]interface{})
	if err := json.Unmarshal([]byte(c.ContextJSON), &contextFields); err != nil {
		s.logger.Error("Failed to parse context fields", zap.Int64("cid", c.ID), zap.Error(err))
		return nil, ErrSchemaValidation
	}

	userFields := merge(contextFields, req.Input)
	if !taskIO.VerifyAnnotation(userFields) {
		s.logger.Error("Improper formatting in user annotation components", zap.Int64("cid", c.ID))
		return nil, ErrSchemaValidation
	}

	modelWrong := req.ModelWrong
	humanOnly := req.ModelSignature == nil && req.ModelWrong == nil &&
		req.ModelEndpointName == nil && req.Output == nil

	if !humanOnly {
		if req.Output == nil {
			s.logger.Error("Model submission without output", zap.Int64("cid", c.ID))
			return nil, ErrSchemaValidation
		}
		// Model outputs win on key collision: they may overwrite
		// user-supplied defaults.
		modelFields := merge(userFields, req.Output)
		if !taskIO.VerifyAnnotation(modelFields) {
			s.logger.Error("Improper formatting in model annotation components", zap.Int64("cid", c.ID))
			return nil, ErrSchemaValidation
		}

		received := ""
		if req.ModelSignature != nil {
			received = *req.ModelSignature
		}

		if req.ModelEndpointName != nil && strings.HasPrefix(*req.ModelEndpointName, hostedEndpointPrefix) {
			endpoint, err := s.endpoints.GetByEndpointName(*req.ModelEndpointName)
			if err != nil {
				s.logger.Error("Unknown model endpoint",
					zap.String("endpoint", *req.ModelEndpointName), zap.Error(err))
				return nil, ErrSignatureMismatch
			}
			serving := taskIO.ConvertToModelIO(modelFields)
			legacyIO := schema.NewTaskIO(task.TaskCode, schema.LegacyConfig(cfg, task.TaskCode))
			if !signature.VerifyDelegated(s.logger, received, taskIO, legacyIO, serving, endpoint.Secret) {
				return nil, ErrSignatureMismatch
			}
		} else {
			pred, override, err := signature.PredictionString(task.TaskCode, req.Output)
			if err != nil {
				s.logger.Error("Unrecognized output shape for legacy scheme",
					zap.String("task_code", task.TaskCode), zap.Error(err))
				return nil, fmt.Errorf("%w: %v", ErrUnsupportedOutputShape, err)
			}
			if override != nil {
				modelWrong = override
			}
			fields := signature.LegacyFields{
				TaskID:     task.ID,
				RoundID:    round.RID,
				Secret:     round.Secret,
				TaskCode:   task.TaskCode,
				Context:    firstFieldValue(cfg.Context, contextFields),
				Hypothesis: firstFieldValue(cfg.Input, req.Input),
				Prediction: pred,
			}
			if !signature.VerifyLegacy(s.logger, received, fields) {
				return nil, ErrSignatureMismatch
			}
		}
	}

	e := &models.Example{
		CID:               c.ID,
		Tag:               req.Tag,
		InputJSON:         mustJSON(req.Input),
		OutputJSON:        mustJSON(req.Output),
		MetadataJSON:      mustJSON(req.Metadata),
		ModelEndpointName: req.ModelEndpointName,
		Split:             "undecided",
		ModelWrong:        modelWrong,
		GeneratedAt:       time.Now().UTC(),
		TimeElapsedMS:     req.TimeElapsedMS,
	}

	if req.UID != models.AnonymousUID {
		uid, err := strconv.ParseInt(req.UID, 10, 64)
		if err != nil {
			s.logger.Error("Invalid submitter id", zap.String("uid", req.UID), zap.Error(err))
			return nil, ErrPersistence
		}
		user, err := s.users.GetByID(uid)
		if err != nil {
			s.logger.Error("Unknown submitter", zap.Int64("uid", uid), zap.Error(err))
			return nil, ErrPersistence
		}
		e.UID = &user.ID
	}

	if err := s.examples.Create(e); err != nil {
		s.logger.Error("Could not create example", zap.Error(err))
		return nil, ErrPersistence
	}
	s.logger.Info("Added example", zap.Int64("id", e.ID))
	return e, nil
}

// GetRandom returns up to Count examples needing validation. Query failures
// collapse to an empty result; callers treat "nothing to validate" and
// "query failed" identically, only logs differentiate.
func (s *ExampleService) GetRandom(req RetrievalRequest) []*models.Example {
	examples, err := s.examples.GetRandom(req.RoundID, req.ValidateNonFooling,
		req.NumMatchingValidations, req.Count, req.UserID, req.Tags)
	if err != nil {
		s.logger.Error("Random retrieval failed", zap.Int64("rid", req.RoundID), zap.Error(err))
		return nil
	}
	return examples
}

// GetRandomFiltered is GetRandom restricted to the requested flag and
// disagreement bands.
func (s *ExampleService) GetRandomFiltered(req FilteredRetrievalRequest) []*models.Example {
	examples, err := s.examples.GetRandomFiltered(req.RoundID,
		req.MinFlags, req.MaxFlags, req.MinDisagreements, req.MaxDisagreements,
		req.ValidateNonFooling, req.Count, req.Tags)
	if err != nil {
		s.logger.Error("Filtered retrieval failed", zap.Int64("rid", req.RoundID), zap.Error(err))
		return nil
	}
	return examples
}

// ListByTask returns every example collected under a task, across rounds.
func (s *ExampleService) ListByTask(tid int64) ([]*models.Example, error) {
	return s.examples.GetByTask(tid)
}

// RoundContexts lists the prompts of a round.
func (s *ExampleService) RoundContexts(rid int64) ([]*models.Context, error) {
	return s.contexts.GetByRound(rid)
}

// Export returns a round's examples with submitter identities replaced by
// pseudonymous ids derived from the round secret.
func (s *ExampleService) Export(tid, rid int64) ([]map[string]interface{}, error) {
	round, err := s.rounds.GetByTaskAndOrdinal(tid, rid)
	if err != nil {
		return nil, err
	}
	examples, err := s.examples.GetByTaskAndRound(tid, rid)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0, len(examples))
	for _, e := range examples {
		entry := map[string]interface{}{
			"id":                  e.ID,
			"cid":                 e.CID,
			"tag":                 e.Tag,
			"input_json":          e.InputJSON,
			"output_json":         e.OutputJSON,
			"metadata_json":       e.MetadataJSON,
			"model_endpoint_name": e.ModelEndpointName,
			"model_wrong":         e.ModelWrong,
			"retracted":           e.Retracted,
			"flagged":             e.Flagged,
			"generated_datetime":  e.GeneratedAt,
			"total_verified":      e.TotalVerified,
		}
		if e.UID != nil {
			entry["anon_uid"] = signature.AnonUID(round.Secret, strconv.FormatInt(*e.UID, 10))
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *ExampleService) task(tid int64) (*models.Task, error) {
	key := fmt.Sprintf("task:%d", tid)
	if v, ok := s.cache.Get(key); ok {
		return v.(*models.Task), nil
	}
	t, err := s.tasks.GetByID(tid)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, t, cache.DefaultExpiration)
	return t, nil
}

func (s *ExampleService) round(id int64) (*models.Round, error) {
	key := fmt.Sprintf("round:%d", id)
	if v, ok := s.cache.Get(key); ok {
		return v.(*models.Round), nil
	}
	r, err := s.rounds.GetByID(id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, r, cache.DefaultExpiration)
	return r, nil
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// firstFieldValue returns the first declared field present in the payload,
// as a string. The legacy scheme hashes "the" context/hypothesis string; the
// annotation config order makes that choice deterministic.
func firstFieldValue(specs []schema.FieldSpec, fields map[string]interface{}) string {
	for _, spec := range specs {
		if v, ok := fields[spec.Name]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func mustJSON(v interface{}) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(encoded)
}
