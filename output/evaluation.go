// Package output provides different formats of output for experiments.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Evaluation is a scored experiment run ready for formatting.
type Evaluation struct {
	RunID         string
	Scores        map[string]float64
	TrainingTime  time.Duration
	InferenceTime time.Duration
}

// EvaluationFormatter is used in a stride pipeline to output evaluation results.
type EvaluationFormatter func(Evaluation) (string, error)

// reportOrder is the fixed order metrics appear in the report.
var reportOrder = []string{"Accuracy", "Precision", "Recall", "Specificity", "F1", "ROC-AUC"}

// TextEvaluationFormatter outputs the report in the fixed console format:
// metrics to four decimal places, timings to two.
func TextEvaluationFormatter(e Evaluation) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", e.RunID)
	seen := make(map[string]bool)
	for _, name := range reportOrder {
		if v, ok := e.Scores[name]; ok {
			fmt.Fprintf(&b, "%-12s %.4f\n", name+":", v)
			seen[name] = true
		}
	}
	for name, v := range e.Scores {
		if !seen[name] {
			fmt.Fprintf(&b, "%-12s %.4f\n", name+":", v)
		}
	}
	fmt.Fprintf(&b, "%-12s %.2fs\n", "Training:", e.TrainingTime.Seconds())
	fmt.Fprintf(&b, "%-12s %.2fs\n", "Inference:", e.InferenceTime.Seconds())
	return b.String(), nil
}

// JsonEvaluationFormatter outputs the report in a JSON format.
func JsonEvaluationFormatter(e Evaluation) (string, error) {
	v, err := json.MarshalIndent(map[string]interface{}{
		"run":               e.RunID,
		"scores":            e.Scores,
		"training_seconds":  e.TrainingTime.Seconds(),
		"inference_seconds": e.InferenceTime.Seconds(),
	}, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}
