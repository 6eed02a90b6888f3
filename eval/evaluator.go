// Package eval scores classifier predictions against ground-truth activity labels.
package eval

import (
	"gonum.org/v1/gonum/mat"
)

// Prediction is the output of a classifier on a partition, scored by evaluators.
type Prediction struct {
	Predicted     []int
	Actual        []int
	Probabilities *mat.Dense
	Classes       int
}

// Evaluator is an interface for evaluating a set of predictions.
type Evaluator interface {
	Score(p *Prediction) float64
	Name() string
}

// Evaluate scores predictions using the supplied evaluation measures.
func Evaluate(evaluators []Evaluator, p *Prediction) map[string]float64 {
	scores := make(map[string]float64, len(evaluators))
	for _, evaluator := range evaluators {
		scores[evaluator.Name()] = evaluator.Score(p)
	}
	return scores
}

// ConfusionMatrix computes the confusion matrix of a prediction, with actual
// classes as rows and predicted classes as columns.
func ConfusionMatrix(p *Prediction) [][]float64 {
	m := make([][]float64, p.Classes)
	for i := range m {
		m[i] = make([]float64, p.Classes)
	}
	for i, actual := range p.Actual {
		m[actual][p.Predicted[i]]++
	}
	return m
}
