package eval_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hscells/stride/eval"
)

const tolerance = 1e-9

// prediction is a three-class example with hand-computed scores.
var prediction = &eval.Prediction{
	Actual:    []int{0, 0, 0, 1, 1, 2},
	Predicted: []int{0, 0, 1, 1, 0, 2},
	Classes:   3,
}

func TestConfusionMatrix(t *testing.T) {
	m := eval.ConfusionMatrix(prediction)
	want := [][]float64{
		{2, 1, 0},
		{1, 1, 0},
		{0, 0, 1},
	}
	for i := range want {
		for j := range want[i] {
			if m[i][j] != want[i][j] {
				t.Errorf("confusion[%d][%d] = %f, expected %f", i, j, m[i][j], want[i][j])
			}
		}
	}
}

func TestAccuracy(t *testing.T) {
	if got := eval.AccuracyEvaluator.Score(prediction); math.Abs(got-4.0/6) > tolerance {
		t.Errorf("accuracy %f, expected %f", got, 4.0/6)
	}
}

func TestWeightedPrecision(t *testing.T) {
	// Per-class precision 2/3, 1/2, 1 with supports 3, 2, 1.
	if got := eval.WeightedPrecision.Score(prediction); math.Abs(got-4.0/6) > tolerance {
		t.Errorf("precision %f, expected %f", got, 4.0/6)
	}
}

func TestWeightedRecall(t *testing.T) {
	if got := eval.WeightedRecall.Score(prediction); math.Abs(got-4.0/6) > tolerance {
		t.Errorf("recall %f, expected %f", got, 4.0/6)
	}
}

func TestWeightedF1(t *testing.T) {
	// Precision equals recall for every class here, so F1 matches both.
	if got := eval.WeightedF1.Score(prediction); math.Abs(got-4.0/6) > tolerance {
		t.Errorf("f1 %f, expected %f", got, 4.0/6)
	}
}

func TestSpecificityAveragesDiagonalOverRowSums(t *testing.T) {
	// mean(2/3, 1/2, 1) = 13/18.
	if got := eval.SpecificityEvaluator.Score(prediction); math.Abs(got-13.0/18) > tolerance {
		t.Errorf("specificity %f, expected %f", got, 13.0/18)
	}
}

func TestPerfectPrediction(t *testing.T) {
	p := &eval.Prediction{
		Actual:    []int{0, 1, 2},
		Predicted: []int{0, 1, 2},
		Classes:   3,
	}
	for _, evaluator := range []eval.Evaluator{
		eval.AccuracyEvaluator,
		eval.WeightedPrecision,
		eval.WeightedRecall,
		eval.SpecificityEvaluator,
		eval.WeightedF1,
	} {
		if got := evaluator.Score(p); math.Abs(got-1) > tolerance {
			t.Errorf("%s = %f on a perfect prediction, expected 1", evaluator.Name(), got)
		}
	}
}

func TestEvaluateNamesScores(t *testing.T) {
	scores := eval.Evaluate([]eval.Evaluator{eval.AccuracyEvaluator, eval.WeightedF1}, prediction)
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if _, ok := scores["Accuracy"]; !ok {
		t.Error("expected an Accuracy score")
	}
	if _, ok := scores["F1"]; !ok {
		t.Error("expected an F1 score")
	}
}

func TestROCAUC(t *testing.T) {
	p := &eval.Prediction{
		Actual:  []int{0, 1, 0, 1},
		Classes: 2,
		Probabilities: mat.NewDense(4, 2, []float64{
			0.9, 0.1,
			0.1, 0.9,
			0.6, 0.4,
			0.65, 0.35,
		}),
	}
	// One misranked pair out of four for each class.
	if got := eval.ROCAUCEvaluator.Score(p); math.Abs(got-0.75) > tolerance {
		t.Errorf("auc %f, expected 0.75", got)
	}
}

func TestROCAUCPerfectSeparation(t *testing.T) {
	p := &eval.Prediction{
		Actual:  []int{0, 0, 1, 1},
		Classes: 2,
		Probabilities: mat.NewDense(4, 2, []float64{
			0.9, 0.1,
			0.8, 0.2,
			0.3, 0.7,
			0.2, 0.8,
		}),
	}
	if got := eval.ROCAUCEvaluator.Score(p); math.Abs(got-1) > tolerance {
		t.Errorf("auc %f, expected 1", got)
	}
}

func TestROCAUCTiedScores(t *testing.T) {
	p := &eval.Prediction{
		Actual:  []int{0, 1},
		Classes: 2,
		Probabilities: mat.NewDense(2, 2, []float64{
			0.5, 0.5,
			0.5, 0.5,
		}),
	}
	// Indistinguishable scores rank at chance.
	if got := eval.ROCAUCEvaluator.Score(p); math.Abs(got-0.5) > tolerance {
		t.Errorf("auc %f, expected 0.5", got)
	}
}

func TestROCAUCDegenerateClass(t *testing.T) {
	p := &eval.Prediction{
		Actual:  []int{0, 0},
		Classes: 2,
		Probabilities: mat.NewDense(2, 2, []float64{
			0.9, 0.1,
			0.8, 0.2,
		}),
	}
	if got := eval.ROCAUCEvaluator.Score(p); !math.IsNaN(got) {
		t.Errorf("expected NaN for a class with no recordings, got %f", got)
	}
}
