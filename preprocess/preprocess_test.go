package preprocess_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hscells/stride/analysis"
	"github.com/hscells/stride/preprocess"
	"github.com/hscells/stride/stats"
)

const tolerance = 1e-9

func newScaler() *preprocess.StandardScaler {
	return preprocess.NewStandardScaler(analysis.NewMemoryMeasurementExecutor(), stats.NewSensorStatisticsSource())
}

func newWinsoriser() *preprocess.Winsoriser {
	return preprocess.NewWinsoriser(analysis.NewMemoryMeasurementExecutor(), stats.NewSensorStatisticsSource())
}

func TestStandardScaler(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	y, err := newScaler().FitTransform(x)
	if err != nil {
		t.Fatal(err)
	}
	r, c := y.Dims()
	for j := 0; j < c; j++ {
		var mean float64
		for i := 0; i < r; i++ {
			mean += y.At(i, j)
		}
		mean /= float64(r)
		if math.Abs(mean) > tolerance {
			t.Errorf("column %d mean %f, expected 0", j, mean)
		}
		var variance float64
		for i := 0; i < r; i++ {
			d := y.At(i, j) - mean
			variance += d * d
		}
		variance /= float64(r)
		if math.Abs(math.Sqrt(variance)-1) > tolerance {
			t.Errorf("column %d deviation %f, expected 1", j, math.Sqrt(variance))
		}
	}
}

func TestStandardScalerZeroVariance(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{5, 5, 5})
	y, err := newScaler().FitTransform(x)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if y.At(i, 0) != 0 {
			t.Errorf("expected a constant column to map to 0, got %f", y.At(i, 0))
		}
	}
}

func TestStandardScalerUnfit(t *testing.T) {
	if _, err := newScaler().Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Fatal("expected an error transforming before fitting")
	}
}

func TestWinsoriserClamps(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}
	x := mat.NewDense(20, 1, values)
	w := newWinsoriser()
	y, err := w.FitTransform(x)
	if err != nil {
		t.Fatal(err)
	}
	lo := y.At(0, 0)
	hi := y.At(19, 0)
	for i := 0; i < 20; i++ {
		v := y.At(i, 0)
		if v < lo || v > hi {
			t.Errorf("value %f outside clamp [%f, %f]", v, lo, hi)
		}
	}
	if lo == 1 {
		t.Error("expected the minimum to be clamped up")
	}
	if hi == 20 {
		t.Error("expected the maximum to be clamped down")
	}
}

func TestWinsoriserIdempotent(t *testing.T) {
	x := mat.NewDense(10, 1, []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3})
	once, err := newWinsoriser().FitTransform(x)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := newWinsoriser().FitTransform(once)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(once, twice, tolerance) {
		t.Error("expected winsorising twice to equal winsorising once")
	}
}

func TestWinsoriserConstantColumn(t *testing.T) {
	x := mat.NewDense(5, 1, []float64{7, 7, 7, 7, 7})
	y, err := newWinsoriser().FitTransform(x)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(x, y, tolerance) {
		t.Error("expected a constant column to be a no-op clamp")
	}
}

func TestApplyChainsTransformers(t *testing.T) {
	x := mat.NewDense(10, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100})
	y, err := preprocess.Apply(x, newWinsoriser(), newScaler())
	if err != nil {
		t.Fatal(err)
	}
	r, _ := y.Dims()
	var mean float64
	for i := 0; i < r; i++ {
		mean += y.At(i, 0)
	}
	if math.Abs(mean/float64(r)) > tolerance {
		t.Errorf("expected zero mean after chain, got %f", mean/float64(r))
	}
}
