// Package learning provides feature selection and classification models for
// sensor-activity recognition experiments.
package learning

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Lasso is an L1-penalised linear regression fit by cyclic coordinate
// descent. The target is the integer-coded activity label treated as a
// continuous response, which is how the features are ranked for selection.
type Lasso struct {
	Alpha         float64
	MaxIterations int
	Tolerance     float64

	coefficients []float64
	intercept    float64
}

// NewLasso creates a lasso regression with the given penalty strength.
func NewLasso(alpha float64) *Lasso {
	return &Lasso{Alpha: alpha, MaxIterations: 1000, Tolerance: 1e-4}
}

// Fit estimates the coefficients of the regression by coordinate descent.
func (l *Lasso) Fit(x *mat.Dense, y []float64) error {
	n, p := x.Dims()
	if n != len(y) {
		return errors.Errorf("cannot fit lasso on %d rows with %d targets", n, len(y))
	}
	if n == 0 {
		return errors.New("cannot fit lasso on an empty matrix")
	}

	// Centre the response so the intercept drops out of the descent.
	yMean := floats.Sum(y) / float64(n)
	residual := make([]float64, n)
	for i := range y {
		residual[i] = y[i] - yMean
	}

	columns := make([][]float64, p)
	norms := make([]float64, p)
	for j := 0; j < p; j++ {
		col := make([]float64, n)
		mat.Col(col, j, x)
		columns[j] = col
		norms[j] = floats.Dot(col, col)
	}

	w := make([]float64, p)
	threshold := l.Alpha * float64(n)
	for it := 0; it < l.MaxIterations; it++ {
		var maxDelta float64
		for j := 0; j < p; j++ {
			if norms[j] == 0 {
				continue
			}
			col := columns[j]
			// rho is the correlation of column j with the residual,
			// excluding column j's own contribution.
			rho := floats.Dot(col, residual) + norms[j]*w[j]
			next := softThreshold(rho, threshold) / norms[j]
			if delta := next - w[j]; delta != 0 {
				floats.AddScaled(residual, -delta, col)
				if d := math.Abs(delta); d > maxDelta {
					maxDelta = d
				}
				w[j] = next
			}
		}
		if maxDelta < l.Tolerance {
			break
		}
	}

	l.coefficients = w
	l.intercept = yMean
	return nil
}

// Coefficients returns one coefficient per input feature.
func (l *Lasso) Coefficients() []float64 {
	return l.coefficients
}

// Predict computes the fitted response for each row.
func (l *Lasso) Predict(x *mat.Dense) ([]float64, error) {
	if l.coefficients == nil {
		return nil, errors.New("lasso has not been fit")
	}
	n, p := x.Dims()
	if p != len(l.coefficients) {
		return nil, errors.Errorf("lasso was fit on %d columns, not %d", len(l.coefficients), p)
	}
	predictions := make([]float64, n)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		predictions[i] = l.intercept + floats.Dot(row, l.coefficients)
	}
	return predictions, nil
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}

// LassoCV chooses the penalty strength of a lasso regression by k-fold
// cross-validation over a geometric grid of candidates, then refits on the
// full data with the winning penalty.
type LassoCV struct {
	Alphas int
	Eps    float64
	Folds  int
	Seed   int64

	alpha        float64
	coefficients []float64
}

// NewLassoCV creates a cross-validated lasso with a 100-point penalty grid and 5 folds.
func NewLassoCV() *LassoCV {
	return &LassoCV{Alphas: 100, Eps: 1e-3, Folds: 5, Seed: 42}
}

// Fit searches the penalty grid by cross-validation and fits the final
// regression with the best penalty.
func (l *LassoCV) Fit(x *mat.Dense, y []float64) error {
	n, _ := x.Dims()
	if n != len(y) {
		return errors.Errorf("cannot fit lasso on %d rows with %d targets", n, len(y))
	}
	if n < 2 {
		return errors.New("cannot cross-validate on fewer than two rows")
	}

	grid := l.alphaGrid(x, y)
	folds := l.Folds
	if folds > n {
		folds = n
	}

	// Assign rows to folds by shuffling once.
	rng := rand.New(rand.NewSource(l.Seed))
	assignment := rng.Perm(n)

	bestAlpha := grid[0]
	bestScore := math.Inf(1)
	for _, alpha := range grid {
		var score float64
		for fold := 0; fold < folds; fold++ {
			trainIdx, testIdx := foldIndices(assignment, folds, fold)
			lasso := NewLasso(alpha)
			if err := lasso.Fit(subsetRows(x, trainIdx), subsetFloats(y, trainIdx)); err != nil {
				return errors.Wrapf(err, "could not fit fold %d at alpha %f", fold, alpha)
			}
			predicted, err := lasso.Predict(subsetRows(x, testIdx))
			if err != nil {
				return errors.Wrapf(err, "could not predict fold %d at alpha %f", fold, alpha)
			}
			score += meanSquaredError(predicted, subsetFloats(y, testIdx))
		}
		score /= float64(folds)
		if score < bestScore {
			bestScore = score
			bestAlpha = alpha
		}
	}

	final := NewLasso(bestAlpha)
	if err := final.Fit(x, y); err != nil {
		return errors.Wrapf(err, "could not fit final lasso at alpha %f", bestAlpha)
	}
	l.alpha = bestAlpha
	l.coefficients = final.Coefficients()
	return nil
}

// Alpha returns the penalty strength chosen by cross-validation.
func (l *LassoCV) Alpha() float64 {
	return l.alpha
}

// Coefficients returns one coefficient per input feature from the final fit.
func (l *LassoCV) Coefficients() []float64 {
	return l.coefficients
}

// alphaGrid builds a geometric grid from the smallest penalty that zeroes
// every coefficient down to Eps times that value.
func (l *LassoCV) alphaGrid(x *mat.Dense, y []float64) []float64 {
	n, p := x.Dims()
	yMean := floats.Sum(y) / float64(n)
	centred := make([]float64, n)
	for i := range y {
		centred[i] = y[i] - yMean
	}
	col := make([]float64, n)
	var alphaMax float64
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		if v := math.Abs(floats.Dot(col, centred)) / float64(n); v > alphaMax {
			alphaMax = v
		}
	}
	if alphaMax == 0 {
		alphaMax = 1
	}
	grid := make([]float64, l.Alphas)
	if l.Alphas == 1 {
		grid[0] = alphaMax
		return grid
	}
	ratio := math.Pow(l.Eps, 1/float64(l.Alphas-1))
	alpha := alphaMax
	for i := range grid {
		grid[i] = alpha
		alpha *= ratio
	}
	return grid
}

func foldIndices(assignment []int, folds, fold int) (train, test []int) {
	for i, idx := range assignment {
		if i%folds == fold {
			test = append(test, idx)
		} else {
			train = append(train, idx)
		}
	}
	return train, test
}

func subsetRows(x *mat.Dense, indices []int) *mat.Dense {
	_, p := x.Dims()
	y := mat.NewDense(len(indices), p, nil)
	for i, idx := range indices {
		y.SetRow(i, x.RawRowView(idx))
	}
	return y
}

func subsetFloats(v []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}

func meanSquaredError(predicted, actual []float64) float64 {
	var s float64
	for i := range predicted {
		d := predicted[i] - actual[i]
		s += d * d
	}
	return s / float64(len(predicted))
}
