// Package analysis provides measurements and analysis tools for feature columns.
package analysis

import (
	"fmt"

	"github.com/hscells/stride/stats"
)

// Measurement is a representation for how a column measurement fits into the pipeline.
type Measurement interface {
	// Name is the name of the measurement in the output. It should not contain any spaces.
	Name() string
	// Execute computes the implemented measurement for a feature column using the specified statistics.
	Execute(column []float64, s stats.StatisticsSource) (float64, error)
}

type meanValue struct{}
type standardDeviation struct{}
type quantile struct {
	p float64
}

var (
	// MeanValue measures the sample mean of a column.
	MeanValue = meanValue{}
	// StandardDeviation measures the population standard deviation of a column.
	StandardDeviation = standardDeviation{}
	// LowerDecile measures the 10th percentile of a column.
	LowerDecile = quantile{p: 0.1}
	// UpperDecile measures the 90th percentile of a column.
	UpperDecile = quantile{p: 0.9}
)

func (meanValue) Name() string {
	return "MeanValue"
}

func (meanValue) Execute(column []float64, s stats.StatisticsSource) (float64, error) {
	return s.Mean(column)
}

func (standardDeviation) Name() string {
	return "StandardDeviation"
}

func (standardDeviation) Execute(column []float64, s stats.StatisticsSource) (float64, error) {
	return s.StandardDeviation(column)
}

func (q quantile) Name() string {
	return fmt.Sprintf("Quantile%g", q.p*100)
}

func (q quantile) Execute(column []float64, s stats.StatisticsSource) (float64, error) {
	return s.Quantile(q.p, column)
}

// NewQuantile creates a measurement for the empirical p-quantile of a column.
func NewQuantile(p float64) Measurement {
	return quantile{p: p}
}
