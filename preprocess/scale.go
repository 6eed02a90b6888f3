package preprocess

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/hscells/stride/analysis"
	"github.com/hscells/stride/stats"
)

// StandardScaler standardises each feature column to zero mean and unit
// variance using statistics fit over the full matrix. A zero-variance column
// has its deviation replaced by 1 so it maps to all zeros rather than
// dividing by zero.
type StandardScaler struct {
	executor analysis.MeasurementExecutor
	source   stats.StatisticsSource
	means    []float64
	devs     []float64
}

// NewStandardScaler creates a scaler that computes column statistics through the given executor.
func NewStandardScaler(executor analysis.MeasurementExecutor, source stats.StatisticsSource) *StandardScaler {
	return &StandardScaler{executor: executor, source: source}
}

// Fit computes the mean and standard deviation of every column.
func (s *StandardScaler) Fit(x *mat.Dense) error {
	_, c := x.Dims()
	s.means = make([]float64, c)
	s.devs = make([]float64, c)
	for j := 0; j < c; j++ {
		measured, err := s.executor.Execute(column(x, j), s.source, analysis.MeanValue, analysis.StandardDeviation)
		if err != nil {
			return errors.Wrapf(err, "could not fit scaler on column %d", j)
		}
		s.means[j] = measured[0]
		s.devs[j] = measured[1]
		if s.devs[j] == 0 {
			s.devs[j] = 1
		}
	}
	return nil
}

// Transform standardises every column using the fitted statistics.
func (s *StandardScaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	if s.means == nil {
		return nil, errors.New("scaler has not been fit")
	}
	r, c := x.Dims()
	if c != len(s.means) {
		return nil, errors.Errorf("scaler was fit on %d columns, not %d", len(s.means), c)
	}
	y := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			y.Set(i, j, (x.At(i, j)-s.means[j])/s.devs[j])
		}
	}
	return y, nil
}

// FitTransform fits the scaler and standardises the matrix in one step.
func (s *StandardScaler) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
