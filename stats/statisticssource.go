// Package stats provides implementations of statistic sources.
package stats

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// StatisticsSource represents the way statistics are calculated for a feature column.
type StatisticsSource interface {
	Parameters() map[string]float64

	Mean(column []float64) (float64, error)
	StandardDeviation(column []float64) (float64, error)
	Quantile(p float64, column []float64) (float64, error)
}

// SensorStatisticsSource computes column statistics in-process with gonum.
// The standard deviation is the population deviation, matching how the
// features are standardised downstream.
type SensorStatisticsSource struct {
	parameters map[string]float64
}

// NewSensorStatisticsSource creates a new statistics source for sensor feature columns.
func NewSensorStatisticsSource(options ...func(*SensorStatisticsSource)) *SensorStatisticsSource {
	s := &SensorStatisticsSource{parameters: map[string]float64{}}
	for _, option := range options {
		option(s)
	}
	return s
}

// SensorParameters sets free parameters reported by the source.
func SensorParameters(parameters map[string]float64) func(*SensorStatisticsSource) {
	return func(s *SensorStatisticsSource) {
		s.parameters = parameters
	}
}

// Parameters reports the free parameters of the source.
func (s *SensorStatisticsSource) Parameters() map[string]float64 {
	return s.parameters
}

// Mean computes the sample mean of a column.
func (s *SensorStatisticsSource) Mean(column []float64) (float64, error) {
	if len(column) == 0 {
		return 0, errors.New("cannot compute the mean of an empty column")
	}
	return stat.Mean(column, nil), nil
}

// StandardDeviation computes the population standard deviation of a column.
func (s *SensorStatisticsSource) StandardDeviation(column []float64) (float64, error) {
	if len(column) == 0 {
		return 0, errors.New("cannot compute the deviation of an empty column")
	}
	mean := stat.Mean(column, nil)
	var ss float64
	for _, v := range column {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(column))), nil
}

// Quantile computes the empirical p-quantile of a column.
func (s *SensorStatisticsSource) Quantile(p float64, column []float64) (float64, error) {
	if len(column) == 0 {
		return 0, errors.New("cannot compute a quantile of an empty column")
	}
	if p < 0 || p > 1 {
		return 0, errors.Errorf("quantile %f out of range", p)
	}
	sorted := make([]float64, len(column))
	copy(sorted, column)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil), nil
}
