package signature

import (
	"fmt"
	"strconv"
)

// PredictionString builds the legacy-scheme canonical prediction string for a
// model output. It returns the string, an optional model_wrong override
// implied by the output shape, and an error when the task/output combination
// is not one of the recognized legacy shapes.
func PredictionString(taskCode string, output map[string]interface{}) (string, *bool, error) {
	if taskCode == "qa" || taskCode == "vqa" {
		return qaPrediction(taskCode, output)
	}

	rawProbs, ok := output["prob"].(map[string]interface{})
	if !ok {
		return "", nil, fmt.Errorf("missing prob field for task %q", taskCode)
	}

	var order []string
	switch taskCode {
	case "nli":
		order = []string{"entailed", "neutral", "contradictory"}
	case "sentiment":
		order = []string{"negative", "positive", "neutral"}
	case "hs":
		order = []string{"not-hateful", "hateful"}
	default:
		return "", nil, fmt.Errorf("no legacy prediction shape for task %q", taskCode)
	}

	pred := ""
	for i, label := range order {
		p, ok := rawProbs[label]
		if !ok {
			return "", nil, fmt.Errorf("missing %q probability for task %q", label, taskCode)
		}
		if i > 0 {
			pred += "|"
		}
		pred += formatValue(p)
	}
	return pred, nil, nil
}

func qaPrediction(taskCode string, output map[string]interface{}) (string, *bool, error) {
	var pred string
	var wrong bool

	answer, hasAnswer := output["answer"]
	prob, hasProb := output["prob"]
	correct, hasCorrect := output["model_is_correct"]
	text, hasText := output["text"]

	switch {
	case taskCode == "vqa" && hasAnswer && hasProb:
		p, ok := prob.(float64)
		if !ok {
			return "", nil, fmt.Errorf("vqa prob is not numeric")
		}
		pred = formatValue(answer) + "|" + strconv.FormatFloat(p, 'g', -1, 64)
		wrong = false
	case hasCorrect && hasText:
		c, ok := correct.(bool)
		if !ok {
			return "", nil, fmt.Errorf("model_is_correct is not a bool")
		}
		pred = strconv.FormatBool(c) + "|" + formatValue(text)
		wrong = !c
	default:
		return "", nil, fmt.Errorf("unrecognized %s output shape", taskCode)
	}

	if modelID, ok := output["model_id"]; ok {
		pred += "|" + formatValue(modelID)
	}
	return pred, &wrong, nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
