package schema

import (
	"encoding/json"
	"fmt"
)

// FieldSpec is one named, typed field of a task's annotation schema.
type FieldSpec struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Labels    []string `json:"labels,omitempty"`
	Reference string   `json:"reference_name,omitempty"`
}

// AnnotationConfig is the per-task annotation schema: ordered lists of the
// fields a context, a user input and a model output may carry.
type AnnotationConfig struct {
	Context  []FieldSpec `json:"context"`
	Input    []FieldSpec `json:"input"`
	Output   []FieldSpec `json:"output"`
	Metadata []FieldSpec `json:"metadata,omitempty"`
}

// ParseAnnotationConfig decodes the annotation_config_json column of a task.
func ParseAnnotationConfig(raw string) (*AnnotationConfig, error) {
	cfg := &AnnotationConfig{}
	if err := json.Unmarshal([]byte(raw), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse annotation config: %w", err)
	}
	return cfg, nil
}

// LegacyConfig derives the best-effort pre-delegation variant of a config:
// context fields are cleared for the hs and sentiment tasks and output fields
// carrying probabilities or confidences are dropped. Models deployed before
// those fields existed signed over this shape.
func LegacyConfig(cfg *AnnotationConfig, taskCode string) *AnnotationConfig {
	legacy := &AnnotationConfig{
		Context: cfg.Context,
		Input:   cfg.Input,
	}
	if taskCode == "hs" || taskCode == "sentiment" {
		legacy.Context = nil
	}
	for _, spec := range cfg.Output {
		if spec.Type == "multiclass_probs" || spec.Type == "conf" {
			continue
		}
		legacy.Output = append(legacy.Output, spec)
	}
	return legacy
}
