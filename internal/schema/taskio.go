package schema

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
)

// IO is the schema-validator capability the admission path depends on:
// conformance checking, serving-format conversion and response-signature
// reconstruction, all parameterized by one annotation config.
type IO interface {
	VerifyAnnotation(fields map[string]interface{}) bool
	ConvertToModelIO(fields map[string]interface{}) map[string]interface{}
	GenerateResponseSignature(inputs, outputs map[string]interface{}, secret string) string
}

// TaskIO implements IO for a single task code and annotation config.
type TaskIO struct {
	taskCode string
	cfg      *AnnotationConfig
}

func NewTaskIO(taskCode string, cfg *AnnotationConfig) *TaskIO {
	return &TaskIO{taskCode: taskCode, cfg: cfg}
}

// VerifyAnnotation reports whether every field in the payload is declared by
// the annotation config and carries a value of the declared type. Declared
// fields may be absent (a user annotation carries no output fields).
func (t *TaskIO) VerifyAnnotation(fields map[string]interface{}) bool {
	specs := t.specIndex()
	for name, value := range fields {
		spec, ok := specs[name]
		if !ok {
			return false
		}
		if !checkFieldType(spec, value) {
			return false
		}
	}
	return true
}

// ConvertToModelIO restricts the payload to the declared context, input and
// output fields, in serving format.
func (t *TaskIO) ConvertToModelIO(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, group := range [][]FieldSpec{t.cfg.Context, t.cfg.Input, t.cfg.Output} {
		for _, spec := range group {
			if v, ok := fields[spec.Name]; ok {
				out[spec.Name] = v
			}
		}
	}
	return out
}

// GenerateResponseSignature computes the delegated-scheme signature: one
// cumulative SHA-1 digest over the endpoint secret, the task code and the
// config-ordered field values (context and input fields from inputs, output
// fields from outputs). Field values are canonicalized through JSON encoding
// so map-valued fields digest deterministically.
func (t *TaskIO) GenerateResponseSignature(inputs, outputs map[string]interface{}, secret string) string {
	h := sha1.New()
	h.Write([]byte(secret))
	h.Write([]byte(t.taskCode))
	for _, group := range [][]FieldSpec{t.cfg.Context, t.cfg.Input} {
		for _, spec := range group {
			if v, ok := inputs[spec.Name]; ok {
				h.Write(canonicalField(spec.Name, v))
			}
		}
	}
	for _, spec := range t.cfg.Output {
		if v, ok := outputs[spec.Name]; ok {
			h.Write(canonicalField(spec.Name, v))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (t *TaskIO) specIndex() map[string]FieldSpec {
	specs := make(map[string]FieldSpec)
	for _, group := range [][]FieldSpec{t.cfg.Context, t.cfg.Input, t.cfg.Output, t.cfg.Metadata} {
		for _, spec := range group {
			specs[spec.Name] = spec
		}
	}
	return specs
}

func canonicalField(name string, value interface{}) []byte {
	encoded, err := json.Marshal(value)
	if err != nil {
		encoded = []byte("null")
	}
	return append(append([]byte(name), '='), encoded...)
}

func checkFieldType(spec FieldSpec, value interface{}) bool {
	switch spec.Type {
	case "string", "text", "context_string_selection", "image_url", "target_label":
		_, ok := value.(string)
		return ok
	case "multiclass":
		s, ok := value.(string)
		if !ok {
			return false
		}
		return len(spec.Labels) == 0 || containsLabel(spec.Labels, s)
	case "multiclass_probs":
		probs, ok := value.(map[string]interface{})
		if !ok {
			return false
		}
		for label, p := range probs {
			if _, ok := p.(float64); !ok {
				return false
			}
			if len(spec.Labels) > 0 && !containsLabel(spec.Labels, label) {
				return false
			}
		}
		return true
	case "conf", "prob":
		p, ok := value.(float64)
		return ok && p >= 0 && p <= 1
	case "bool":
		_, ok := value.(bool)
		return ok
	default:
		return value != nil
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
