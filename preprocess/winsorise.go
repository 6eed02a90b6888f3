package preprocess

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/hscells/stride/analysis"
	"github.com/hscells/stride/stats"
)

// Winsoriser clamps the extreme values of each feature column to a lower and
// upper percentile computed over the full column. Applying it twice with the
// same limits yields the same matrix as applying it once. A near-constant
// column yields a no-op clamp.
type Winsoriser struct {
	Lower    float64
	Upper    float64
	executor analysis.MeasurementExecutor
	source   stats.StatisticsSource
	lo       []float64
	hi       []float64
}

// NewWinsoriser creates a winsoriser that clamps each column to its [10th, 90th] percentile.
func NewWinsoriser(executor analysis.MeasurementExecutor, source stats.StatisticsSource) *Winsoriser {
	return &Winsoriser{Lower: 0.1, Upper: 0.9, executor: executor, source: source}
}

// Fit computes the per-column clamping bounds.
func (w *Winsoriser) Fit(x *mat.Dense) error {
	_, c := x.Dims()
	w.lo = make([]float64, c)
	w.hi = make([]float64, c)
	lower := analysis.NewQuantile(w.Lower)
	upper := analysis.NewQuantile(w.Upper)
	for j := 0; j < c; j++ {
		measured, err := w.executor.Execute(column(x, j), w.source, lower, upper)
		if err != nil {
			return errors.Wrapf(err, "could not fit winsoriser on column %d", j)
		}
		w.lo[j] = measured[0]
		w.hi[j] = measured[1]
	}
	return nil
}

// Transform clamps every column to the fitted bounds.
func (w *Winsoriser) Transform(x *mat.Dense) (*mat.Dense, error) {
	if w.lo == nil {
		return nil, errors.New("winsoriser has not been fit")
	}
	r, c := x.Dims()
	if c != len(w.lo) {
		return nil, errors.Errorf("winsoriser was fit on %d columns, not %d", len(w.lo), c)
	}
	y := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			if v < w.lo[j] {
				v = w.lo[j]
			} else if v > w.hi[j] {
				v = w.hi[j]
			}
			y.Set(i, j, v)
		}
	}
	return y, nil
}

// FitTransform fits the winsoriser and clamps the matrix in one step.
func (w *Winsoriser) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	if err := w.Fit(x); err != nil {
		return nil, err
	}
	return w.Transform(x)
}
