package learning

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SelectionPolicy decides which features survive selection given the lasso
// coefficients. Surviving indices are returned sorted descending by
// importance (absolute coefficient magnitude), ties broken by original
// column order.
type SelectionPolicy interface {
	Name() string
	Select(coefficients []float64) ([]int, error)
}

type topK struct {
	k int
}

type nonZero struct{}

// TopK keeps the k most important features.
func TopK(k int) SelectionPolicy {
	return topK{k: k}
}

// NonZero keeps every feature with a strictly non-zero coefficient.
var NonZero SelectionPolicy = nonZero{}

func (t topK) Name() string {
	return "TopK"
}

func (t topK) Select(coefficients []float64) ([]int, error) {
	ranked := rankByImportance(coefficients)
	if t.k < len(ranked) {
		ranked = ranked[:t.k]
	}
	return ranked, nil
}

func (nonZero) Name() string {
	return "NonZero"
}

func (nonZero) Select(coefficients []float64) ([]int, error) {
	var survivors []int
	for _, idx := range rankByImportance(coefficients) {
		if coefficients[idx] != 0 {
			survivors = append(survivors, idx)
		}
	}
	if len(survivors) == 0 {
		return nil, errors.New("no features survived selection")
	}
	return survivors, nil
}

func rankByImportance(coefficients []float64) []int {
	indices := make([]int, len(coefficients))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return math.Abs(coefficients[indices[a]]) > math.Abs(coefficients[indices[b]])
	})
	return indices
}

// FeatureSelector ranks features with a cross-validated lasso and keeps a
// subset of them according to its policy. All downstream stages use only the
// selected columns.
type FeatureSelector struct {
	Lasso  *LassoCV
	Policy SelectionPolicy

	indices    []int
	importance []float64
}

// NewFeatureSelector creates a selector with the given policy over a cross-validated lasso.
func NewFeatureSelector(policy SelectionPolicy) *FeatureSelector {
	return &FeatureSelector{Lasso: NewLassoCV(), Policy: policy}
}

// Select fits the lasso on the full matrix against the integer-coded labels
// and applies the policy to the resulting coefficients.
func (f *FeatureSelector) Select(x *mat.Dense, labels []int) ([]int, error) {
	y := make([]float64, len(labels))
	for i, label := range labels {
		y[i] = float64(label)
	}
	if err := f.Lasso.Fit(x, y); err != nil {
		return nil, errors.Wrap(err, "could not rank features")
	}
	coefficients := f.Lasso.Coefficients()
	indices, err := f.Policy.Select(coefficients)
	if err != nil {
		return nil, err
	}
	f.indices = indices
	f.importance = make([]float64, len(indices))
	for i, idx := range indices {
		f.importance[i] = math.Abs(coefficients[idx])
	}
	return indices, nil
}

// Importance returns the importance scores aligned to the selected indices.
func (f *FeatureSelector) Importance() []float64 {
	return f.importance
}

// Project copies only the selected columns of the matrix, in selection order.
func (f *FeatureSelector) Project(x *mat.Dense) (*mat.Dense, error) {
	if f.indices == nil {
		return nil, errors.New("no features have been selected")
	}
	r, c := x.Dims()
	for _, idx := range f.indices {
		if idx >= c {
			return nil, errors.Errorf("selected column %d out of range", idx)
		}
	}
	y := mat.NewDense(r, len(f.indices), nil)
	for i := 0; i < r; i++ {
		for j, idx := range f.indices {
			y.Set(i, j, x.At(i, idx))
		}
	}
	return y, nil
}
