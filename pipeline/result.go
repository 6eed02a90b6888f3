package pipeline

import (
	"time"
)

// ResultType is the type of result being returned through a pipeline channel.
type ResultType uint8

const (
	// Measurement is a set of measurements describing the loaded dataset.
	Measurement ResultType = iota
	// Selection is the outcome of feature selection.
	Selection
	// Fold is the outcome of training one cross-validation fold.
	Fold
	// Evaluation is an evaluation result on the held-out test partition.
	Evaluation
	// Report is a formatted experiment report.
	Report
	// Error indicates an error was raised.
	Error
	// Done indicates the pipeline has completed.
	Done
)

// FoldResult records the outcome of training a single cross-validation fold.
type FoldResult struct {
	Fold               int
	ValidationAccuracy float64
	TrainingTime       time.Duration
}

// SelectionResult records which feature columns survived selection, in
// descending order of importance, along with the importance scores and
// column names aligned to those indices.
type SelectionResult struct {
	Indices    []int
	Importance []float64
	Names      []string
}

// Result is the output of a stride pipeline.
type Result struct {
	RunID        string
	Measurements map[string]float64
	Selection    SelectionResult
	Fold         FoldResult
	Evaluation   map[string]float64
	Report       string
	Error        error
	Type         ResultType
}
