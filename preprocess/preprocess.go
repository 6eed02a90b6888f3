// Package preprocess handles preprocessing and transformation of feature matrices.
package preprocess

import (
	"gonum.org/v1/gonum/mat"
)

// Transformer is applied to feature matrices before selection and training.
// A transformer is fit once over a full matrix and can then transform any
// matrix with the same column layout.
type Transformer interface {
	// Fit learns the per-column parameters of the transformation.
	Fit(x *mat.Dense) error
	// Transform applies the fitted transformation, returning a new matrix.
	Transform(x *mat.Dense) (*mat.Dense, error)
	// FitTransform fits the transformation and applies it in one step.
	FitTransform(x *mat.Dense) (*mat.Dense, error)
}

// Apply runs each transformer over the matrix in order, fitting as it goes.
func Apply(x *mat.Dense, transformers ...Transformer) (*mat.Dense, error) {
	var err error
	for _, t := range transformers {
		x, err = t.FitTransform(x)
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

func column(x *mat.Dense, j int) []float64 {
	r, _ := x.Dims()
	col := make([]float64, r)
	mat.Col(col, j, x)
	return col
}
